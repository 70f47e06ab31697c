// Package service runs Customer Match uploads: it fetches a contact file,
// hashes its rows and drives the ads platform job that loads them into a
// user list.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/okian/customermatch/internal/adapters/googleads"
	"github.com/okian/customermatch/internal/domain/model"
	"github.com/okian/customermatch/internal/domain/normalize"
	"github.com/okian/customermatch/pkg/logger"
	"github.com/okian/customermatch/pkg/metrics"
)

// Defaults for lists created by the service.
const (
	DefaultUserListName       = "Customer Match list"
	DefaultMembershipLifeSpan = 30
	queuedMessage             = "operations queued, not run"
	populationDelayReminder   = "it may take several hours for the user list to be populated; estimates of size zero are possible"
)

// Platform is the ads platform surface used by an upload.
type Platform interface {
	CreateCustomerMatchUserList(ctx context.Context, customerID, name string, lifeSpanDays int) (string, error)
	CreateOfflineUserDataJob(ctx context.Context, customerID, userList string) (string, error)
	AddOfflineUserDataJobOperations(ctx context.Context, job string, batch model.Batch, enablePartialFailure bool) (googleads.PartialFailure, error)
	RunOfflineUserDataJob(ctx context.Context, job string) error
	JobStatus(ctx context.Context, customerID, job string) (googleads.JobRow, string, error)
	UserListSize(ctx context.Context, customerID, userList string) (googleads.UserListRow, error)
}

// RecordSource yields the rows of a stored file. A failed fetch yields no
// rows.
type RecordSource interface {
	Fetch(ctx context.Context, bucket, object string) []model.RawRecord
}

// UploadRequest is one invocation of the pipeline.
type UploadRequest struct {
	Bucket     string
	Object     string
	CustomerID string
	// UserListID selects an existing list whose membership is replaced.
	// Empty creates a new list.
	UserListID string
	// JobID reuses a pending upload job. Empty creates a new job.
	JobID string
	// RunJob overrides the service default when set.
	RunJob *bool
}

// Request drives the ads platform for records that are already hashed.
type Request struct {
	CustomerID string
	UserListID string
	JobID      string
	RunJob     bool
	Records    []model.IdentityRecord
}

// Result summarizes one upload.
type Result struct {
	RequestID       string
	UserList        string
	Job             string
	Replaced        bool
	RawRecords      int
	IdentityRecords int
	Operations      int
	PartialFailures []googleads.OperationError
	Status          model.JobStatus
	JobID           int64
	SizeForDisplay  *int64
	SizeForSearch   *int64
	FailureReason   string
	PollQuery       string
	Message         string
}

// Service implements the upload pipeline. It keeps no state between calls.
type Service struct {
	platform   Platform
	source     RecordSource
	normalizer *normalize.Normalizer

	userListName string
	lifeSpanDays int
	runJob       bool
	abortOnEmpty bool

	logger logger.Logger
}

// New constructs a Service over its collaborators.
func New(platform Platform, source RecordSource, normalizer *normalize.Normalizer, opts ...Option) *Service {
	s := &Service{
		platform:     platform,
		source:       source,
		normalizer:   normalizer,
		userListName: DefaultUserListName,
		lifeSpanDays: DefaultMembershipLifeSpan,
		runJob:       true,
		logger:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.normalizer == nil {
		s.normalizer = normalize.New(normalize.WithLogger(s.logger))
	}
	return s
}

// Upload fetches and hashes the file named by req, then runs it through the
// ads platform. Remote failures are returned as *googleads.APIError.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (Result, error) {
	if req.Bucket == "" || req.Object == "" || req.CustomerID == "" {
		return Result{}, fmt.Errorf("%w: bucket, object and customer id are required", ErrInvalidRequest)
	}
	requestID := uuid.NewString()
	// Collaborators log with ctx, so the run's fields reach their lines too.
	ctx = logger.WithContextFields(ctx, logger.String("request_id", requestID), logger.String("customer_id", req.CustomerID))
	log := s.logger

	raw := s.source.Fetch(ctx, req.Bucket, req.Object)
	records := s.normalizer.Records(ctx, raw)
	log.Info(ctx, "records normalized",
		logger.Int("raw_records", len(raw)), logger.Int("identity_records", len(records)))

	run := s.runJob
	if req.RunJob != nil {
		run = *req.RunJob
	}

	res, err := s.run(ctx, log, Request{
		CustomerID: req.CustomerID,
		UserListID: req.UserListID,
		JobID:      req.JobID,
		RunJob:     run,
		Records:    records,
	})
	res.RequestID = requestID
	res.RawRecords = len(raw)
	if err != nil {
		metrics.RecordUpload(metrics.OutcomeError)
		return res, err
	}
	metrics.RecordUpload(metrics.OutcomeSuccess)
	return res, nil
}

// Run drives the ads platform for already hashed records.
func (s *Service) Run(ctx context.Context, req Request) (Result, error) {
	return s.run(ctx, s.logger, req)
}

func (s *Service) run(ctx context.Context, log logger.Logger, req Request) (Result, error) {
	res := Result{IdentityRecords: len(req.Records)}

	if err := validateIDs(req); err != nil {
		return res, err
	}

	if len(req.Records) == 0 {
		if s.abortOnEmpty {
			return res, ErrNoRecords
		}
		if req.UserListID != "" {
			log.Error(ctx, "no identity records; the existing list membership will be removed",
				logger.String("user_list_id", req.UserListID))
		} else {
			log.Warn(ctx, "no identity records; submitting a batch without additions")
		}
	}

	// Resolve target.
	if req.UserListID != "" {
		res.UserList = googleads.UserListPath(req.CustomerID, req.UserListID)
		res.Replaced = true
	} else {
		name, err := s.platform.CreateCustomerMatchUserList(ctx, req.CustomerID, s.userListName, s.lifeSpanDays)
		if err != nil {
			return res, s.remoteError(ctx, log, "create user list", err)
		}
		res.UserList = name
		log.Info(ctx, "user list created", logger.String("user_list", name))
	}

	// Resolve job.
	if req.JobID != "" {
		res.Job = googleads.OfflineUserDataJobPath(req.CustomerID, req.JobID)
	} else {
		job, err := s.platform.CreateOfflineUserDataJob(ctx, req.CustomerID, res.UserList)
		if err != nil {
			return res, s.remoteError(ctx, log, "create offline user data job", err)
		}
		res.Job = job
		log.Info(ctx, "offline user data job created", logger.String("job", job))
	}

	batch := model.BuildBatch(res.Replaced, req.Records)
	res.Operations = len(batch)

	pf, err := s.platform.AddOfflineUserDataJobOperations(ctx, res.Job, batch, true)
	if err != nil {
		return res, s.remoteError(ctx, log, "add operations", err)
	}
	metrics.RecordOperations(len(batch))
	if pf.Failed() {
		res.PartialFailures = pf.Errors()
		metrics.RecordPartialFailures(len(res.PartialFailures))
		for _, e := range res.PartialFailures {
			log.Warn(ctx, "partial failure",
				logger.Int("index", e.Index), logger.String("message", e.Message), logger.String("code", e.Code))
		}
	}
	log.Info(ctx, "operations added to the offline user data job",
		logger.String("job", res.Job), logger.Int("operations", len(batch)))

	if !req.RunJob {
		res.Status = model.JobStatusQueued
		res.Message = queuedMessage
		log.Info(ctx, "not running offline user data job, as requested", logger.String("job", res.Job))
		return res, nil
	}

	if err := s.platform.RunOfflineUserDataJob(ctx, res.Job); err != nil {
		return res, s.remoteError(ctx, log, "run offline user data job", err)
	}

	return s.checkJobStatus(ctx, log, req.CustomerID, res)
}

// checkJobStatus reports the job state once; it does not wait for the job.
func (s *Service) checkJobStatus(ctx context.Context, log logger.Logger, customerID string, res Result) (Result, error) {
	job, query, err := s.platform.JobStatus(ctx, customerID, res.Job)
	if err != nil {
		return res, s.remoteError(ctx, log, "check job status", err)
	}
	res.Status = model.ParseJobStatus(job.Status)
	res.JobID = job.ID
	metrics.RecordJobStatus(string(res.Status))
	log.Info(ctx, "offline user data job status",
		logger.Int64("job_id", job.ID), logger.String("type", job.Type), logger.String("status", string(res.Status)))

	switch {
	case res.Status == model.JobStatusSuccess:
		userList := job.UserList()
		if userList == "" {
			userList = res.UserList
		}
		size, err := s.platform.UserListSize(ctx, customerID, userList)
		if err != nil {
			return res, s.remoteError(ctx, log, "read user list size", err)
		}
		res.SizeForDisplay = &size.SizeForDisplay
		res.SizeForSearch = &size.SizeForSearch
		res.Message = populationDelayReminder
		log.Info(ctx, "estimated user list size",
			logger.String("user_list", userList),
			logger.Int64("size_for_display", size.SizeForDisplay),
			logger.Int64("size_for_search", size.SizeForSearch))
		log.Info(ctx, populationDelayReminder)
	case res.Status == model.JobStatusFailed:
		res.FailureReason = job.FailureReason
		log.Warn(ctx, "offline user data job failed", logger.String("failure_reason", job.FailureReason))
	case res.Status.InProgress():
		res.PollQuery = query
		res.Message = "job has not finished; poll its status with the returned query"
		log.Info(ctx, "to check the status of the job periodically, use this GAQL query with GoogleAdsService.Search",
			logger.String("query", query))
	}
	return res, nil
}

// remoteError logs the detail of a failed remote call and wraps it.
func (s *Service) remoteError(ctx context.Context, log logger.Logger, step string, err error) error {
	var apiErr *googleads.APIError
	if errors.As(err, &apiErr) {
		log.Error(ctx, "ads request failed",
			logger.String("step", step),
			logger.String("ads_request_id", apiErr.RequestID),
			logger.String("status", apiErr.Status),
			logger.String("message", apiErr.Message))
		for _, fe := range apiErr.Errors {
			log.Error(ctx, "ads error detail",
				logger.String("message", fe.Message),
				logger.String("code", fe.ErrorCode.String()),
				logger.String("field_path", fe.FieldPath()))
		}
	} else {
		log.Error(ctx, "ads request failed", logger.String("step", step), logger.Error(err))
	}
	return fmt.Errorf("%s: %w", step, err)
}

// validateIDs keeps caller-supplied ids out of resource paths and GAQL
// literals unless they are plain numbers.
func validateIDs(req Request) error {
	if !googleads.IsResourceID(googleads.CustomerID(req.CustomerID)) {
		return fmt.Errorf("%w: customer id %q", ErrInvalidRequest, req.CustomerID)
	}
	if req.UserListID != "" && !googleads.IsResourceID(req.UserListID) {
		return fmt.Errorf("%w: user list id %q", ErrInvalidRequest, req.UserListID)
	}
	if req.JobID != "" && !googleads.IsResourceID(req.JobID) {
		return fmt.Errorf("%w: job id %q", ErrInvalidRequest, req.JobID)
	}
	return nil
}
