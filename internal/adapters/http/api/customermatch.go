package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/okian/customermatch/internal/adapters/googleads"
	service "github.com/okian/customermatch/internal/app"
	"github.com/okian/customermatch/pkg/logger"
)

// Plain-text bodies of failed requests.
const (
	bodyBadRequest    = "Bad request"
	bodyNotEnoughData = "Not enough data"
	bodyNoRecords     = "No records"
	bodyInternalError = "Internal error"
)

// maxRequestBytes bounds the JSON trigger payload.
const maxRequestBytes = 1 << 20

// flexibleID is an identifier sent either as a JSON string or a JSON number.
type flexibleID string

func (id *flexibleID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = flexibleID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or a number: %w", err)
	}
	*id = flexibleID(n.String())
	return nil
}

// customerMatchRequest mirrors the OpenAPI schema for POST /customer-match.
type customerMatchRequest struct {
	BucketName string     `json:"bucket_name"`
	BlobName   string     `json:"blob_name"`
	CustomerID flexibleID `json:"customer_id"`
	UserListID flexibleID `json:"user_list_id"`
	JobID      flexibleID `json:"offline_user_data_job_id"`
	RunJob     *bool      `json:"run_job"`
}

func (r customerMatchRequest) validate() error {
	var missing []string
	if strings.TrimSpace(r.BucketName) == "" {
		missing = append(missing, "bucket_name")
	}
	if strings.TrimSpace(r.BlobName) == "" {
		missing = append(missing, "blob_name")
	}
	if r.CustomerID == "" {
		missing = append(missing, "customer_id")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrNotEnoughData, strings.Join(missing, ", "))
	}
	if !googleads.IsResourceID(googleads.CustomerID(string(r.CustomerID))) {
		return fmt.Errorf("%w: customer_id must be numeric", ErrBadRequest)
	}
	for name, id := range map[string]flexibleID{"user_list_id": r.UserListID, "offline_user_data_job_id": r.JobID} {
		if id != "" && !googleads.IsResourceID(string(id)) {
			return fmt.Errorf("%w: %s must be numeric", ErrBadRequest, name)
		}
	}
	return nil
}

func (r customerMatchRequest) upload() service.UploadRequest {
	return service.UploadRequest{
		Bucket:     strings.TrimSpace(r.BucketName),
		Object:     strings.TrimSpace(r.BlobName),
		CustomerID: string(r.CustomerID),
		UserListID: string(r.UserListID),
		JobID:      string(r.JobID),
		RunJob:     r.RunJob,
	}
}

// decodeCustomerMatchRequest rejects empty bodies, malformed JSON and empty
// objects with ErrBadRequest, and incomplete requests with ErrNotEnoughData.
func decodeCustomerMatchRequest(body io.Reader) (customerMatchRequest, error) {
	raw, err := io.ReadAll(io.LimitReader(body, maxRequestBytes))
	if err != nil {
		return customerMatchRequest{}, fmt.Errorf("%w: read body: %w", ErrBadRequest, err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return customerMatchRequest{}, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	if len(fields) == 0 {
		return customerMatchRequest{}, fmt.Errorf("%w: empty request", ErrBadRequest)
	}
	var req customerMatchRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return customerMatchRequest{}, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	if err := req.validate(); err != nil {
		return customerMatchRequest{}, err
	}
	return req, nil
}

type partialFailureResponse struct {
	Index   int    `json:"index"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Path    string `json:"path,omitempty"`
}

type customerMatchResponse struct {
	RequestID            string                   `json:"request_id"`
	JobResourceName      string                   `json:"job_resource_name"`
	UserListResourceName string                   `json:"user_list_resource_name"`
	Replaced             bool                     `json:"replaced"`
	Status               string                   `json:"status"`
	Records              int                      `json:"records"`
	Operations           int                      `json:"operations"`
	PartialFailures      []partialFailureResponse `json:"partial_failures"`
	SizeForDisplay       *int64                   `json:"size_for_display,omitempty"`
	SizeForSearch        *int64                   `json:"size_for_search,omitempty"`
	FailureReason        string                   `json:"failure_reason,omitempty"`
	PollQuery            string                   `json:"poll_query,omitempty"`
	Message              string                   `json:"message"`
}

func newCustomerMatchResponse(res service.Result) customerMatchResponse {
	out := customerMatchResponse{
		RequestID:            res.RequestID,
		JobResourceName:      res.Job,
		UserListResourceName: res.UserList,
		Replaced:             res.Replaced,
		Status:               string(res.Status),
		Records:              res.IdentityRecords,
		Operations:           res.Operations,
		PartialFailures:      make([]partialFailureResponse, 0, len(res.PartialFailures)),
		SizeForDisplay:       res.SizeForDisplay,
		SizeForSearch:        res.SizeForSearch,
		FailureReason:        res.FailureReason,
		PollQuery:            res.PollQuery,
		Message:              res.Message,
	}
	for _, e := range res.PartialFailures {
		out.PartialFailures = append(out.PartialFailures, partialFailureResponse{
			Index: e.Index, Message: e.Message, Code: e.Code, Path: e.Path,
		})
	}
	if out.Message == "" {
		out.Message = "OK"
	}
	return out
}

// CustomerMatchHandler handles upload trigger requests.
type CustomerMatchHandler struct {
	uploader Uploader
	log      logger.Logger
}

// NewCustomerMatchHandler creates a new customer match handler.
func NewCustomerMatchHandler(uploader Uploader, log logger.Logger) *CustomerMatchHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &CustomerMatchHandler{uploader: uploader, log: log}
}

// HandleCustomerMatch handles POST / and POST /customer-match requests.
func (h *CustomerMatchHandler) HandleCustomerMatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()

	req, err := decodeCustomerMatchRequest(r.Body)
	switch {
	case errors.Is(err, ErrNotEnoughData):
		h.log.Warn(ctx, "rejecting request", logger.Error(err))
		writeText(w, http.StatusBadRequest, bodyNotEnoughData)
		return
	case err != nil:
		h.log.Warn(ctx, "rejecting request", logger.Error(err))
		writeText(w, http.StatusBadRequest, bodyBadRequest)
		return
	}

	res, err := h.uploader.Upload(ctx, req.upload())
	if err != nil {
		h.writeUploadError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newCustomerMatchResponse(res))
}

func (h *CustomerMatchHandler) writeUploadError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *googleads.APIError
	switch {
	case errors.As(err, &apiErr):
		h.log.Error(r.Context(), "upload failed", logger.String("status", apiErr.Status), logger.Error(err))
		writeText(w, http.StatusInternalServerError, apiErr.Status)
	case errors.Is(err, service.ErrNoRecords):
		h.log.Warn(r.Context(), "upload aborted", logger.Error(err))
		writeText(w, http.StatusUnprocessableEntity, bodyNoRecords)
	case errors.Is(err, service.ErrInvalidRequest):
		writeText(w, http.StatusBadRequest, bodyNotEnoughData)
	default:
		h.log.Error(r.Context(), "upload failed", logger.Error(err))
		writeText(w, http.StatusInternalServerError, bodyInternalError)
	}
}
