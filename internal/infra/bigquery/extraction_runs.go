package bigquery

import (
	"context"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"

	"github.com/tech6-code/DocuFlow-AI-sub007/internal/logger"
)

// Run statuses.
const (
	RunStatusRunning = "RUNNING"
	RunStatusSuccess = "SUCCESS"
	RunStatusFailed  = "FAILED"
)

// ExtractionRunRow is one attempt at processing an extraction job.
type ExtractionRunRow struct {
	RunID string `bigquery:"run_id"` // REQUIRED
	JobID string `bigquery:"job_id"` // REQUIRED
	Kind  string `bigquery:"kind"`   // REQUIRED

	StartedTS  time.Time              `bigquery:"started_ts"`  // REQUIRED
	FinishedTS bigquery.NullTimestamp `bigquery:"finished_ts"` // NULLABLE

	Status       string `bigquery:"status"`        // REQUIRED
	ErrorMessage string `bigquery:"error_message"` // NULLABLE

	Records  bigquery.NullInt64 `bigquery:"records"`  // NULLABLE
	Failures bigquery.NullInt64 `bigquery:"failures"` // NULLABLE
}

// StartRun inserts a RUNNING row and returns the generated run_id.
func (r *Repository) StartRun(ctx context.Context, jobID, kind string) (string, error) {
	runID := uuid.NewString()

	sql := `
		INSERT INTO ` + r.table(extractionRunsTable) + ` (
			run_id, job_id, kind, started_ts, status
		)
		VALUES (
			@run_id, @job_id, @kind, @started_ts, @status
		)
	`
	params := []bigquery.QueryParameter{
		{Name: "run_id", Value: runID},
		{Name: "job_id", Value: jobID},
		{Name: "kind", Value: kind},
		{Name: "started_ts", Value: time.Now()},
		{Name: "status", Value: RunStatusRunning},
	}

	if err := r.exec(ctx, sql, params); err != nil {
		return "", wrap("StartRun", err)
	}
	return runID, nil
}

// MarkRunSucceeded sets status=SUCCESS with the record and batch failure counts.
func (r *Repository) MarkRunSucceeded(ctx context.Context, runID string, records, failures int) error {
	sql := `
		UPDATE ` + r.table(extractionRunsTable) + `
		SET status = @status,
		    finished_ts = @finished_ts,
		    error_message = "",
		    records = @records,
		    failures = @failures
		WHERE run_id = @run_id
	`
	params := []bigquery.QueryParameter{
		{Name: "status", Value: RunStatusSuccess},
		{Name: "finished_ts", Value: time.Now()},
		{Name: "records", Value: int64(records)},
		{Name: "failures", Value: int64(failures)},
		{Name: "run_id", Value: runID},
	}

	if err := r.exec(ctx, sql, params); err != nil {
		return wrap("MarkRunSucceeded", err)
	}
	return nil
}

// MarkRunFailed sets status=FAILED, finished_ts and error_message. Errors
// are logged, not returned.
func (r *Repository) MarkRunFailed(ctx context.Context, runID string, runErr error) {
	log := logger.FromContext(ctx)

	errMsg := ""
	if runErr != nil {
		errMsg = truncate(runErr.Error(), maxErrLen)
	}

	sql := `
		UPDATE ` + r.table(extractionRunsTable) + `
		SET status = @status,
		    finished_ts = @finished_ts,
		    error_message = @error_message
		WHERE run_id = @run_id
	`
	params := []bigquery.QueryParameter{
		{Name: "status", Value: RunStatusFailed},
		{Name: "finished_ts", Value: time.Now()},
		{Name: "error_message", Value: errMsg},
		{Name: "run_id", Value: runID},
	}

	if err := r.exec(ctx, sql, params); err != nil {
		log.Error().
			Err(err).
			Str("run_id", runID).
			Msg("MarkRunFailed: update failed")
	}
}
