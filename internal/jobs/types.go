package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrJobNotFound is returned by a JobStore for an unknown job ID.
var ErrJobNotFound = errors.New("job not found")

// Kind is the type of document an extraction job handles.
type Kind string

const (
	// KindStatement extracts a bank statement into a ledger.
	KindStatement Kind = "statement"
	// KindInvoices extracts and classifies invoices.
	KindInvoices Kind = "invoices"
	// KindTrialBalance extracts and categorizes a trial balance.
	KindTrialBalance Kind = "trial_balance"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindStatement, KindInvoices, KindTrialBalance:
		return true
	}
	return false
}

// JobStatus represents the current status of a job.
type JobStatus string

const (
	// JobStatusPending indicates the job is waiting to be processed.
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates the job is currently being processed.
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates the job completed successfully.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates the job failed.
	JobStatusFailed JobStatus = "failed"
	// JobStatusRetrying indicates the job failed and is being retried.
	JobStatusRetrying JobStatus = "retrying"
)

// ExtractionJob is a request to extract and normalize documents stored in GCS.
type ExtractionJob struct {
	JobID string `json:"job_id"`
	Kind  Kind   `json:"kind"`

	// GCSURIs are the source documents, in page/batch order.
	GCSURIs []string `json:"gcs_uris"`

	// CompanyName and CompanyTRN identify the reporting company for invoices.
	CompanyName string `json:"company_name,omitempty"`
	CompanyTRN  string `json:"company_trn,omitempty"`

	// OpeningBalance and the period bounds apply to statements.
	OpeningBalance float64 `json:"opening_balance,omitempty"`
	PeriodFrom     string  `json:"period_from,omitempty"`
	PeriodTo       string  `json:"period_to,omitempty"`

	// RunID is the diagnostics run of the latest attempt, if recorded.
	RunID string `json:"run_id,omitempty"`

	Status      JobStatus  `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`

	// Records and Failures summarize Result.
	Records  int             `json:"records"`
	Failures int             `json:"failures"`
	Result   json.RawMessage `json:"result,omitempty"`

	RetryCount int `json:"retry_count"`
	MaxRetries int `json:"max_retries"`
}

// Job is a generic interface for all job types.
type Job interface {
	GetID() string
	GetKind() Kind
	GetStatus() JobStatus
}

// GetID implements the Job interface.
func (j *ExtractionJob) GetID() string {
	return j.JobID
}

// GetKind implements the Job interface.
func (j *ExtractionJob) GetKind() Kind {
	return j.Kind
}

// GetStatus implements the Job interface.
func (j *ExtractionJob) GetStatus() JobStatus {
	return j.Status
}

// Publisher defines the interface for publishing jobs to a queue.
type Publisher interface {
	// Publish enqueues an extraction job.
	Publish(ctx context.Context, job *ExtractionJob) error

	// Close closes the publisher and releases resources.
	Close() error
}

// Consumer defines the interface for consuming jobs from a queue.
type Consumer interface {
	// Start begins consuming jobs from the queue.
	// The handler function is called for each job received.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming jobs and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler is a function that processes a job.
// It should return an error if the job failed and should be retried.
type JobHandler func(ctx context.Context, job Job) error

// JobStore defines the interface for storing and retrieving job status.
type JobStore interface {
	// SaveJob saves or updates a job's state.
	SaveJob(ctx context.Context, job *ExtractionJob) error

	// GetJob retrieves a job by ID.
	GetJob(ctx context.Context, jobID string) (*ExtractionJob, error)

	// ListJobs retrieves jobs with optional filtering, newest first.
	ListJobs(ctx context.Context, filter JobFilter) ([]*ExtractionJob, error)

	// UpdateJobStatus updates the status of a job.
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errorMsg string) error
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	Kind   Kind
	Status JobStatus

	// Limit limits the number of results.
	Limit int

	// Offset for pagination.
	Offset int
}
