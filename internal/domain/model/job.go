package model

import "strings"

// JobStatus is the remote state of an upload job.
type JobStatus string

// Job states reported by the ads platform. Queued is local: operations were
// added but the job was not started.
const (
	JobStatusUnknown JobStatus = "UNKNOWN"
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
	JobStatusQueued  JobStatus = "QUEUED"
)

// ParseJobStatus maps a remote enum name onto JobStatus.
func ParseJobStatus(s string) JobStatus {
	switch st := JobStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case JobStatusPending, JobStatusRunning, JobStatusSuccess, JobStatusFailed:
		return st
	default:
		return JobStatusUnknown
	}
}

// InProgress reports whether the job has not reached a terminal state.
func (s JobStatus) InProgress() bool {
	return s == JobStatusPending || s == JobStatusRunning
}
