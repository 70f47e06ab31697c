package googleads

import (
	"context"
	"fmt"

	"github.com/okian/customermatch/internal/domain/model"
	"github.com/okian/customermatch/pkg/logger"
)

// IsResourceID reports whether id is a non-empty run of decimal digits, the
// only form accepted in resource names built by this package.
func IsResourceID(id string) bool {
	if id == "" {
		return false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// UserListPath returns the resource name of a user list.
func UserListPath(customerID, userListID string) string {
	return fmt.Sprintf("customers/%s/userLists/%s", CustomerID(customerID), userListID)
}

// OfflineUserDataJobPath returns the resource name of an upload job.
func OfflineUserDataJobPath(customerID, jobID string) string {
	return fmt.Sprintf("customers/%s/offlineUserDataJobs/%s", CustomerID(customerID), jobID)
}

// CreateCustomerMatchUserList creates a list matched on contact info and
// returns its resource name. lifeSpanDays is 0-540, or
// MembershipLifeSpanUnlimited.
func (c *Client) CreateCustomerMatchUserList(ctx context.Context, customerID, name string, lifeSpanDays int) (string, error) {
	req := mutateUserListsRequest{Operations: []userListOperation{{
		Create: &userList{
			Name:               name,
			MembershipLifeSpan: int64(lifeSpanDays),
			CrmBasedUserList:   &crmBasedUserList{UploadKeyType: uploadKeyTypeContactInfo},
		},
	}}}
	var resp mutateUserListsResponse
	path := "customers/" + CustomerID(customerID) + "/userLists:mutate"
	if err := c.call(ctx, "userLists:mutate", path, req, &resp); err != nil {
		return "", err
	}
	if len(resp.Results) == 0 || resp.Results[0].ResourceName == "" {
		return "", fmt.Errorf("%w: userLists:mutate", ErrEmptyResult)
	}
	return resp.Results[0].ResourceName, nil
}

// CreateOfflineUserDataJob creates a Customer Match upload job for userList
// and returns its resource name.
func (c *Client) CreateOfflineUserDataJob(ctx context.Context, customerID, userList string) (string, error) {
	req := createJobRequest{Job: offlineUserDataJob{
		Type:                          jobTypeCustomerMatchUpload,
		CustomerMatchUserListMetadata: &customerMatchUserListMetadata{UserList: userList},
	}}
	var resp createJobResponse
	path := "customers/" + CustomerID(customerID) + "/offlineUserDataJobs:create"
	if err := c.call(ctx, "offlineUserDataJobs:create", path, req, &resp); err != nil {
		return "", err
	}
	if resp.ResourceName == "" {
		return "", fmt.Errorf("%w: offlineUserDataJobs:create", ErrEmptyResult)
	}
	return resp.ResourceName, nil
}

// AddOfflineUserDataJobOperations sends batch to the job in one call.
func (c *Client) AddOfflineUserDataJobOperations(ctx context.Context, job string, batch model.Batch, enablePartialFailure bool) (PartialFailure, error) {
	req := addOperationsRequest{
		EnablePartialFailure: enablePartialFailure,
		Operations:           encodeBatch(batch),
	}
	var resp addOperationsResponse
	if err := c.call(ctx, "offlineUserDataJobs:addOperations", job+":addOperations", req, &resp); err != nil {
		return PartialFailure{}, err
	}
	return newPartialFailure(resp.PartialFailureError)
}

// RunOfflineUserDataJob starts processing of every operation added to job.
// The returned long running operation is not awaited.
func (c *Client) RunOfflineUserDataJob(ctx context.Context, job string) error {
	return c.call(ctx, "offlineUserDataJobs:run", job+":run", struct{}{}, nil)
}

// Search runs a GAQL query and returns every page of rows.
func (c *Client) Search(ctx context.Context, customerID, query string) ([]SearchRow, error) {
	path := "customers/" + CustomerID(customerID) + "/googleAds:search"
	var rows []SearchRow
	req := searchRequest{Query: query}
	seen := make(map[string]struct{})
	for {
		var resp searchResponse
		if err := c.call(ctx, "googleAds:search", path, req, &resp); err != nil {
			return nil, err
		}
		rows = append(rows, resp.Results...)
		if resp.NextPageToken == "" {
			return rows, nil
		}
		if _, dup := seen[resp.NextPageToken]; dup {
			c.log.Warn(ctx, "search returned a page token twice; stopping",
				logger.String("page_token", resp.NextPageToken), logger.Int("rows", len(rows)))
			return rows, nil
		}
		seen[resp.NextPageToken] = struct{}{}
		req.PageToken = resp.NextPageToken
	}
}

// JobStatus fetches the status row of an upload job. It also returns the
// query used, so callers can poll later.
func (c *Client) JobStatus(ctx context.Context, customerID, job string) (JobRow, string, error) {
	query := JobStatusQuery(job)
	rows, err := c.Search(ctx, customerID, query)
	if err != nil {
		return JobRow{}, query, err
	}
	for _, r := range rows {
		if r.OfflineUserDataJob != nil {
			return *r.OfflineUserDataJob, query, nil
		}
	}
	return JobRow{}, query, fmt.Errorf("%w: job %s", ErrEmptyResult, job)
}

// UserListSize fetches the estimated sizes of a user list.
func (c *Client) UserListSize(ctx context.Context, customerID, userList string) (UserListRow, error) {
	rows, err := c.Search(ctx, customerID, UserListSizeQuery(userList))
	if err != nil {
		return UserListRow{}, err
	}
	for _, r := range rows {
		if r.UserList != nil {
			return *r.UserList, nil
		}
	}
	return UserListRow{}, fmt.Errorf("%w: user list %s", ErrEmptyResult, userList)
}
