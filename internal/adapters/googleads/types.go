package googleads

import (
	"encoding/json"
	"strings"

	"github.com/okian/customermatch/internal/domain/model"
)

// Enum values sent to the platform.
const (
	uploadKeyTypeContactInfo   = "CONTACT_INFO"
	jobTypeCustomerMatchUpload = "CUSTOMER_MATCH_USER_LIST"
	googleAdsFailureTypeSuffix = "GoogleAdsFailure"
)

// MembershipLifeSpanUnlimited keeps members of a list indefinitely.
const MembershipLifeSpanUnlimited = 10000

type userList struct {
	Name               string            `json:"name"`
	MembershipLifeSpan int64             `json:"membershipLifeSpan,string"`
	CrmBasedUserList   *crmBasedUserList `json:"crmBasedUserList,omitempty"`
}

type crmBasedUserList struct {
	UploadKeyType string `json:"uploadKeyType"`
}

type userListOperation struct {
	Create *userList `json:"create,omitempty"`
}

type mutateUserListsRequest struct {
	Operations []userListOperation `json:"operations"`
}

type mutateResult struct {
	ResourceName string `json:"resourceName"`
}

type mutateUserListsResponse struct {
	Results []mutateResult `json:"results"`
}

type offlineUserDataJob struct {
	Type                          string                         `json:"type"`
	CustomerMatchUserListMetadata *customerMatchUserListMetadata `json:"customerMatchUserListMetadata,omitempty"`
}

type customerMatchUserListMetadata struct {
	UserList string `json:"userList"`
}

type createJobRequest struct {
	Job offlineUserDataJob `json:"job"`
}

type createJobResponse struct {
	ResourceName string `json:"resourceName"`
}

type addressInfo struct {
	HashedFirstName string `json:"hashedFirstName"`
	HashedLastName  string `json:"hashedLastName"`
	CountryCode     string `json:"countryCode"`
	PostalCode      string `json:"postalCode"`
}

// userIdentifier is a oneof on the wire; exactly one field is set.
type userIdentifier struct {
	HashedEmail       string       `json:"hashedEmail,omitempty"`
	HashedPhoneNumber string       `json:"hashedPhoneNumber,omitempty"`
	AddressInfo       *addressInfo `json:"addressInfo,omitempty"`
}

type userData struct {
	UserIdentifiers []userIdentifier `json:"userIdentifiers"`
}

type jobOperation struct {
	Create    *userData `json:"create,omitempty"`
	RemoveAll bool      `json:"removeAll,omitempty"`
}

type addOperationsRequest struct {
	EnablePartialFailure bool           `json:"enablePartialFailure"`
	Operations           []jobOperation `json:"operations"`
}

type addOperationsResponse struct {
	PartialFailureError *status `json:"partialFailureError,omitempty"`
}

type searchRequest struct {
	Query     string `json:"query"`
	PageToken string `json:"pageToken,omitempty"`
}

type searchResponse struct {
	Results       []SearchRow `json:"results"`
	NextPageToken string      `json:"nextPageToken"`
}

// status is google.rpc.Status.
type status struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Status  string            `json:"status"`
	Details []json.RawMessage `json:"details"`
}

type errorEnvelope struct {
	Error status `json:"error"`
}

// Failure is a decoded GoogleAdsFailure detail.
type Failure struct {
	Errors    []FailureError `json:"errors"`
	RequestID string         `json:"requestId"`
}

// failures decodes the GoogleAdsFailure entries of details. Other detail
// types are skipped.
func failures(details []json.RawMessage) ([]Failure, error) {
	var out []Failure
	for _, raw := range details {
		var head struct {
			Type string `json:"@type"`
		}
		if err := json.Unmarshal(raw, &head); err != nil {
			return nil, err
		}
		if !strings.HasSuffix(head.Type, googleAdsFailureTypeSuffix) {
			continue
		}
		var f Failure
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// SearchRow is one GAQL result row. Only the resources selected by the
// queries of this package are decoded.
type SearchRow struct {
	OfflineUserDataJob *JobRow      `json:"offlineUserDataJob,omitempty"`
	UserList           *UserListRow `json:"userList,omitempty"`
}

// JobRow is the offline_user_data_job resource.
type JobRow struct {
	ResourceName                  string                         `json:"resourceName"`
	ID                            int64                          `json:"id,string"`
	Status                        string                         `json:"status"`
	Type                          string                         `json:"type"`
	FailureReason                 string                         `json:"failureReason"`
	CustomerMatchUserListMetadata *customerMatchUserListMetadata `json:"customerMatchUserListMetadata,omitempty"`
}

// UserList returns the resource name of the list the job uploads to.
func (j JobRow) UserList() string {
	if j.CustomerMatchUserListMetadata == nil {
		return ""
	}
	return j.CustomerMatchUserListMetadata.UserList
}

// UserListRow is the user_list resource.
type UserListRow struct {
	ResourceName   string `json:"resourceName"`
	SizeForDisplay int64  `json:"sizeForDisplay,string"`
	SizeForSearch  int64  `json:"sizeForSearch,string"`
}

// encodeBatch maps domain operations onto the wire form.
func encodeBatch(batch model.Batch) []jobOperation {
	ops := make([]jobOperation, 0, len(batch))
	for _, op := range batch {
		switch o := op.(type) {
		case model.RemoveAll:
			ops = append(ops, jobOperation{RemoveAll: true})
		case model.Create:
			ops = append(ops, jobOperation{Create: encodeUserData(o.Record)})
		}
	}
	return ops
}

func encodeUserData(rec model.IdentityRecord) *userData {
	ud := &userData{UserIdentifiers: make([]userIdentifier, 0, len(rec.Identifiers))}
	for _, id := range rec.Identifiers {
		switch v := id.(type) {
		case model.HashedEmail:
			ud.UserIdentifiers = append(ud.UserIdentifiers, userIdentifier{HashedEmail: v.Hash})
		case model.HashedPhone:
			ud.UserIdentifiers = append(ud.UserIdentifiers, userIdentifier{HashedPhoneNumber: v.Hash})
		case model.Address:
			ud.UserIdentifiers = append(ud.UserIdentifiers, userIdentifier{AddressInfo: &addressInfo{
				HashedFirstName: v.HashedFirstName,
				HashedLastName:  v.HashedLastName,
				CountryCode:     v.CountryCode,
				PostalCode:      v.PostalCode,
			}})
		}
	}
	return ud
}
