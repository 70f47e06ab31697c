package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/customermatch/internal/adapters/googleads"
	"github.com/okian/customermatch/internal/config"
	"github.com/okian/customermatch/internal/domain/model"
	"github.com/okian/customermatch/pkg/logger"
)

type csvFetcher struct {
	body string
}

func (f csvFetcher) Download(_ context.Context, _, _ string, dst io.Writer) error {
	_, err := io.WriteString(dst, f.body)
	return err
}

type recordingPlatform struct {
	batch model.Batch
}

func (p *recordingPlatform) CreateCustomerMatchUserList(_ context.Context, customerID, _ string, _ int) (string, error) {
	return googleads.UserListPath(customerID, "5"), nil
}

func (p *recordingPlatform) CreateOfflineUserDataJob(_ context.Context, customerID, _ string) (string, error) {
	return googleads.OfflineUserDataJobPath(customerID, "6"), nil
}

func (p *recordingPlatform) AddOfflineUserDataJobOperations(_ context.Context, _ string, batch model.Batch, _ bool) (googleads.PartialFailure, error) {
	p.batch = batch
	return googleads.PartialFailure{}, nil
}

func (p *recordingPlatform) RunOfflineUserDataJob(context.Context, string) error { return nil }

func (p *recordingPlatform) JobStatus(_ context.Context, _, job string) (googleads.JobRow, string, error) {
	return googleads.JobRow{ID: 6, Status: "PENDING"}, googleads.JobStatusQuery(job), nil
}

func (p *recordingPlatform) UserListSize(context.Context, string, string) (googleads.UserListRow, error) {
	return googleads.UserListRow{}, nil
}

func TestNewMux(t *testing.T) {
	convey.Convey("Given the wired routes over fake storage and ads platform", t, func() {
		ctx := context.Background()
		cfg := config.New()
		cfg.ScratchDir = t.TempDir()
		cfg.Columns.Email = "email_address"

		platform := &recordingPlatform{}
		fetcher := csvFetcher{body: "email_address,Phone\nJane@Example.com,+1 555 0100\n,\nbob@example.com,\n"}
		mux := newMux(ctx, cfg, platform, fetcher, logger.Nop())

		convey.Convey("When an upload is posted", func() {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"bucket_name":"b","blob_name":"contacts.csv","customer_id":"123-456-7890"}`))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			convey.Convey("Then the file is hashed with the configured columns and the job is run", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				var body map[string]any
				convey.So(json.Unmarshal(w.Body.Bytes(), &body), convey.ShouldBeNil)
				convey.So(body["status"], convey.ShouldEqual, "PENDING")
				convey.So(body["poll_query"], convey.ShouldContainSubstring, "FROM offline_user_data_job")
				convey.So(len(platform.batch), convey.ShouldEqual, 3)
				convey.So(platform.batch.Replaces(), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When the docs and metrics routes are requested", func() {
			for _, path := range []string{"/api-docs", "/openapi.yaml", "/healthz"} {
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			}
		})
	})
}

func TestUpdateSystemMetrics(t *testing.T) {
	convey.Convey("When system metrics are refreshed", t, func() {
		convey.So(updateSystemMetrics, convey.ShouldNotPanic)
	})
}
