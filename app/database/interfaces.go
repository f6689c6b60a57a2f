package database

import "time"

// JobRepository defines the persistence operations for feed jobs.
// Consumed by the refresh orchestrator and the admin API; implemented
// by the SQLite repository.
type JobRepository interface {
	CreateJob(job *Job) error
	GetJob(id string) (*Job, error)
	GetJobByFilename(filename string) (*Job, error)
	ListJobs() ([]Job, error)
	UpdateFilters(id string, include, exclude []string) error
	DeleteJob(id string) error

	GetJobsDueForRefresh(now time.Time, max int) ([]Job, error)
	RecordSuccess(id string, at time.Time, code int, itemsCount int, validation Validation) error
	RecordFailure(id string, at time.Time, code int, message string, diag Diagnostics) error
	RecordSkip(id string, at time.Time, note string, auto bool) error

	CountJobs() (int, error)
}
