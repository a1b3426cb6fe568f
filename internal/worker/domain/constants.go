package domain

// JobStatus is the lifecycle state of a generation job
type JobStatus string

// Job status constants
const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// IsActive reports whether the job still has work ahead of it
func (s JobStatus) IsActive() bool {
	return s == JobStatusQueued || s == JobStatusRunning
}

// IsTerminal reports whether the job has finished
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Event routing key suffixes published on job transitions
const (
	EventJobQueued    = "job.queued"
	EventJobRunning   = "job.running"
	EventJobCompleted = "job.completed"
	EventJobFailed    = "job.failed"
)

// DefaultProviders is the provider set used when configuration does not name one
var DefaultProviders = []string{"aws", "gcp", "azure"}
