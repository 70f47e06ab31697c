package googleads

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/okian/customermatch/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type capturedRequest struct {
	path    string
	headers http.Header
	body    map[string]any
}

// fakeAds serves canned responses keyed by request path.
type fakeAds struct {
	mu        sync.Mutex
	responses map[string]func(w http.ResponseWriter)
	requests  []capturedRequest
}

func (f *fakeAds) request(i int) capturedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[i]
}

func (f *fakeAds) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	var body map[string]any
	_ = json.Unmarshal(raw, &body)
	f.mu.Lock()
	f.requests = append(f.requests, capturedRequest{path: r.URL.Path, headers: r.Header.Clone(), body: body})
	h, ok := f.responses[r.URL.Path]
	f.mu.Unlock()
	if ok {
		h(w)
		return
	}
	http.NotFound(w, r)
}

func respond(status int, body string) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func newTestClient(f *fakeAds) (*Client, func()) {
	srv := httptest.NewServer(f)
	c := New(
		WithEndpoint(srv.URL+"/"),
		WithAPIVersion("v17"),
		WithDeveloperToken("dev-token"),
		WithLoginCustomerID("111-222-3333"),
		WithHTTPClient(srv.Client()),
	)
	return c, srv.Close
}

const invalidArgumentBody = `{
  "error": {
    "code": 400,
    "message": "Request contains an invalid argument.",
    "status": "INVALID_ARGUMENT",
    "details": [
      {"@type": "type.googleapis.com/google.rpc.DebugInfo", "detail": "x"},
      {
        "@type": "type.googleapis.com/google.ads.googleads.v17.errors.GoogleAdsFailure",
        "errors": [{
          "errorCode": {"fieldError": "REQUIRED"},
          "message": "The required field was not present.",
          "location": {"fieldPathElements": [{"fieldName": "operations", "index": 0}, {"fieldName": "create"}]}
        }],
        "requestId": "req-1"
      }
    ]
  }
}`

func TestClientCalls(t *testing.T) {
	Convey("Given a client against a fake ads server", t, func() {
		ctx := context.Background()
		f := &fakeAds{responses: map[string]func(http.ResponseWriter){}}
		c, closeFn := newTestClient(f)
		defer closeFn()

		Convey("When creating a user list", func() {
			f.responses["/v17/customers/1234567890/userLists:mutate"] = respond(200,
				`{"results":[{"resourceName":"customers/1234567890/userLists/42"}]}`)

			name, err := c.CreateCustomerMatchUserList(ctx, "123-456-7890", "Customer Match list", 30)

			Convey("Then the resource name is returned and the request is well formed", func() {
				So(err, ShouldBeNil)
				So(name, ShouldEqual, "customers/1234567890/userLists/42")
				req := f.request(0)
				So(req.headers.Get("developer-token"), ShouldEqual, "dev-token")
				So(req.headers.Get("login-customer-id"), ShouldEqual, "1112223333")
				create := req.body["operations"].([]any)[0].(map[string]any)["create"].(map[string]any)
				So(create["name"], ShouldEqual, "Customer Match list")
				So(create["membershipLifeSpan"], ShouldEqual, "30")
				So(create["crmBasedUserList"], ShouldResemble, map[string]any{"uploadKeyType": "CONTACT_INFO"})
			})
		})

		Convey("When creating a job", func() {
			f.responses["/v17/customers/1/offlineUserDataJobs:create"] = respond(200,
				`{"resourceName":"customers/1/offlineUserDataJobs/7"}`)

			job, err := c.CreateOfflineUserDataJob(ctx, "1", "customers/1/userLists/42")

			So(err, ShouldBeNil)
			So(job, ShouldEqual, "customers/1/offlineUserDataJobs/7")
			So(f.request(0).body["job"], ShouldResemble, map[string]any{
				"type":                          "CUSTOMER_MATCH_USER_LIST",
				"customerMatchUserListMetadata": map[string]any{"userList": "customers/1/userLists/42"},
			})
		})

		Convey("When adding operations with partial failure", func() {
			f.responses["/v17/customers/1/offlineUserDataJobs/7:addOperations"] = respond(200, `{
			  "partialFailureError": {
			    "code": 3,
			    "message": "Multiple errors in details.",
			    "details": [{
			      "@type": "type.googleapis.com/google.ads.googleads.v17.errors.GoogleAdsFailure",
			      "errors": [{
			        "errorCode": {"offlineUserDataJobError": "INVALID_SHA256_FORMAT"},
			        "message": "The SHA256 encoded value is malformed.",
			        "location": {"fieldPathElements": [{"fieldName": "operations", "index": 2}, {"fieldName": "create"}]}
			      }]
			    }]
			  }
			}`)
			batch := model.BuildBatch(true, []model.IdentityRecord{
				{Identifiers: []model.Identifier{model.HashedEmail{Hash: "e"}, model.HashedPhone{Hash: "p"}}},
				{Identifiers: []model.Identifier{model.Address{HashedFirstName: "f", HashedLastName: "l", CountryCode: "US", PostalCode: "1"}}},
			})

			pf, err := c.AddOfflineUserDataJobOperations(ctx, "customers/1/offlineUserDataJobs/7", batch, true)

			Convey("Then the batch is encoded in order", func() {
				So(err, ShouldBeNil)
				body := f.request(0).body
				So(body["enablePartialFailure"], ShouldEqual, true)
				ops := body["operations"].([]any)
				So(len(ops), ShouldEqual, 3)
				So(ops[0], ShouldResemble, map[string]any{"removeAll": true})
				ids := ops[1].(map[string]any)["create"].(map[string]any)["userIdentifiers"].([]any)
				So(ids, ShouldResemble, []any{
					map[string]any{"hashedEmail": "e"},
					map[string]any{"hashedPhoneNumber": "p"},
				})
				addr := ops[2].(map[string]any)["create"].(map[string]any)["userIdentifiers"].([]any)[0].(map[string]any)
				So(addr["addressInfo"], ShouldResemble, map[string]any{
					"hashedFirstName": "f", "hashedLastName": "l", "countryCode": "US", "postalCode": "1",
				})
			})

			Convey("And the failures are decoded per operation", func() {
				So(pf.Failed(), ShouldBeTrue)
				errs := pf.Errors()
				So(len(errs), ShouldEqual, 1)
				So(errs[0].Index, ShouldEqual, 2)
				So(errs[0].Message, ShouldEqual, "The SHA256 encoded value is malformed.")
				So(errs[0].Code, ShouldEqual, "offlineUserDataJobError: INVALID_SHA256_FORMAT")
				So(errs[0].Path, ShouldEqual, "operations[2].create")
			})
		})

		Convey("When adding operations without failures", func() {
			f.responses["/v17/customers/1/offlineUserDataJobs/7:addOperations"] = respond(200, `{}`)

			pf, err := c.AddOfflineUserDataJobOperations(ctx, "customers/1/offlineUserDataJobs/7", model.Batch{}, true)

			So(err, ShouldBeNil)
			So(pf.Failed(), ShouldBeFalse)
			So(pf.Errors(), ShouldBeEmpty)
		})

		Convey("When running a job", func() {
			f.responses["/v17/customers/1/offlineUserDataJobs/7:run"] = respond(200, `{"name":"customers/1/operations/abc"}`)

			So(c.RunOfflineUserDataJob(ctx, "customers/1/offlineUserDataJobs/7"), ShouldBeNil)
		})

		Convey("When the platform rejects a call", func() {
			f.responses["/v17/customers/1/offlineUserDataJobs/7:run"] = respond(400, invalidArgumentBody)

			err := c.RunOfflineUserDataJob(ctx, "customers/1/offlineUserDataJobs/7")

			Convey("Then a structured APIError is returned", func() {
				var apiErr *APIError
				So(errors.As(err, &apiErr), ShouldBeTrue)
				So(apiErr.HTTPStatus, ShouldEqual, 400)
				So(apiErr.Status, ShouldEqual, "INVALID_ARGUMENT")
				So(apiErr.RequestID, ShouldEqual, "req-1")
				So(len(apiErr.Errors), ShouldEqual, 1)
				So(apiErr.Errors[0].FieldPath(), ShouldEqual, "operations[0].create")
				So(apiErr.Error(), ShouldContainSubstring, "req-1")
			})
		})

		Convey("When the error body is not JSON", func() {
			f.responses["/v17/customers/1/googleAds:search"] = func(w http.ResponseWriter) {
				w.Header().Set("request-id", "hdr-9")
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = io.WriteString(w, "upstream unavailable")
			}

			_, err := c.Search(ctx, "1", "SELECT x FROM y")

			var apiErr *APIError
			So(errors.As(err, &apiErr), ShouldBeTrue)
			So(apiErr.Status, ShouldEqual, "UNAVAILABLE")
			So(apiErr.RequestID, ShouldEqual, "hdr-9")
			So(apiErr.Message, ShouldEqual, "upstream unavailable")
		})

		Convey("When searching across pages", func() {
			calls := 0
			f.responses["/v17/customers/1/googleAds:search"] = func(w http.ResponseWriter) {
				calls++
				if calls == 1 {
					respond(200, `{"results":[{"userList":{"resourceName":"a","sizeForDisplay":"10","sizeForSearch":"0"}}],"nextPageToken":"p2"}`)(w)
					return
				}
				respond(200, `{"results":[{"userList":{"resourceName":"b"}}]}`)(w)
			}

			rows, err := c.Search(ctx, "1", "SELECT user_list.resource_name FROM user_list")

			So(err, ShouldBeNil)
			So(len(rows), ShouldEqual, 2)
			So(rows[0].UserList.SizeForDisplay, ShouldEqual, 10)
			So(f.request(1).body["pageToken"], ShouldEqual, "p2")
		})

		Convey("When the server repeats a page token", func() {
			f.responses["/v17/customers/1/googleAds:search"] = respond(200,
				`{"results":[{"userList":{"resourceName":"a"}}],"nextPageToken":"same"}`)

			rows, err := c.Search(ctx, "1", "SELECT user_list.resource_name FROM user_list")

			Convey("Then paging stops after the repeated page", func() {
				So(err, ShouldBeNil)
				So(len(rows), ShouldEqual, 2)
				So(f.request(1).body["pageToken"], ShouldEqual, "same")
			})
		})

		Convey("When checking resource ids", func() {
			So(IsResourceID("1234567890"), ShouldBeTrue)
			So(IsResourceID(""), ShouldBeFalse)
			So(IsResourceID("8/../.."), ShouldBeFalse)
			So(IsResourceID("7'"), ShouldBeFalse)
		})

		Convey("When reading job status and list size", func() {
			f.responses["/v17/customers/1/googleAds:search"] = func(w http.ResponseWriter) {
				f.mu.Lock()
				q, _ := f.requests[len(f.requests)-1].body["query"].(string)
				f.mu.Unlock()
				if strings.Contains(q, "FROM offline_user_data_job") {
					respond(200, `{"results":[{"offlineUserDataJob":{
					  "resourceName":"customers/1/offlineUserDataJobs/7","id":"7","status":"SUCCESS",
					  "type":"CUSTOMER_MATCH_USER_LIST",
					  "customerMatchUserListMetadata":{"userList":"customers/1/userLists/42"}}}]}`)(w)
					return
				}
				respond(200, `{"results":[{"userList":{"resourceName":"customers/1/userLists/42","sizeForDisplay":"0","sizeForSearch":"1500"}}]}`)(w)
			}

			job, query, err := c.JobStatus(ctx, "1", "customers/1/offlineUserDataJobs/7")
			So(err, ShouldBeNil)
			So(job.ID, ShouldEqual, 7)
			So(model.ParseJobStatus(job.Status), ShouldEqual, model.JobStatusSuccess)
			So(job.UserList(), ShouldEqual, "customers/1/userLists/42")
			So(query, ShouldContainSubstring, "'customers/1/offlineUserDataJobs/7'")

			size, err := c.UserListSize(ctx, "1", job.UserList())
			So(err, ShouldBeNil)
			So(size.SizeForDisplay, ShouldEqual, 0)
			So(size.SizeForSearch, ShouldEqual, 1500)
		})

		Convey("When a search returns no rows", func() {
			f.responses["/v17/customers/1/googleAds:search"] = respond(200, `{}`)

			_, _, err := c.JobStatus(ctx, "1", "customers/1/offlineUserDataJobs/7")
			So(errors.Is(err, ErrEmptyResult), ShouldBeTrue)
		})
	})
}

func TestResourcePaths(t *testing.T) {
	Convey("Given customer and resource ids", t, func() {
		So(UserListPath("123-456-7890", "42"), ShouldEqual, "customers/1234567890/userLists/42")
		So(OfflineUserDataJobPath("1", "7"), ShouldEqual, "customers/1/offlineUserDataJobs/7")
		So(CustomerID(" 12-3 "), ShouldEqual, "123")
	})
}

func TestCredentials(t *testing.T) {
	Convey("Given a google-ads.yaml file", t, func() {
		dir := t.TempDir()
		write := func(content string) string {
			p := filepath.Join(dir, "google-ads.yaml")
			So(os.WriteFile(p, []byte(content), 0o600), ShouldBeNil)
			return p
		}

		Convey("When it uses the refresh token flow", func() {
			creds, err := LoadCredentials(write(`
developer_token: dev
login_customer_id: "111-222-3333"
client_id: id
client_secret: secret
refresh_token: rt
use_proto_plus: true
`))

			Convey("Then a token source can be built without network access", func() {
				So(err, ShouldBeNil)
				So(creds.DeveloperToken, ShouldEqual, "dev")
				So(creds.LoginCustomerID, ShouldEqual, "111-222-3333")
				ts, err := creds.TokenSource(context.Background())
				So(err, ShouldBeNil)
				So(ts, ShouldNotBeNil)
			})
		})

		Convey("When the developer token is missing", func() {
			_, err := LoadCredentials(write("client_id: id\n"))
			So(errors.Is(err, ErrCredentials), ShouldBeTrue)
		})

		Convey("When a refresh token lacks a client", func() {
			_, err := Credentials{DeveloperToken: "d", RefreshToken: "rt"}.TokenSource(context.Background())
			So(errors.Is(err, ErrCredentials), ShouldBeTrue)
		})

		Convey("When the key file does not exist", func() {
			_, err := Credentials{DeveloperToken: "d", JSONKeyFilePath: filepath.Join(dir, "none.json")}.TokenSource(context.Background())
			So(errors.Is(err, ErrCredentials), ShouldBeTrue)
		})

		Convey("When the file does not exist", func() {
			_, err := LoadCredentials(filepath.Join(dir, "missing.yaml"))
			So(errors.Is(err, ErrCredentials), ShouldBeTrue)
		})
	})
}
