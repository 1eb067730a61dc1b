package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tech6-code/DocuFlow-AI-sub007/internal/dates"
	"github.com/tech6-code/DocuFlow-AI-sub007/internal/invoice"
	"github.com/tech6-code/DocuFlow-AI-sub007/internal/pipeline"
)

// RunRecorder keeps a diagnostics row per job attempt.
type RunRecorder interface {
	StartRun(ctx context.Context, jobID, kind string) (string, error)
	MarkRunSucceeded(ctx context.Context, runID string, records, failures int) error
	MarkRunFailed(ctx context.Context, runID string, runErr error)
}

// Runner handles extraction jobs: it fetches the source documents, runs the
// matching processor and stores the normalized result on the job.
type Runner struct {
	Storage       pipeline.StorageService
	Statements    *pipeline.StatementProcessor
	Invoices      *pipeline.InvoiceProcessor
	TrialBalances *pipeline.TrialBalanceProcessor

	// Runs is optional.
	Runs RunRecorder
	Log  zerolog.Logger
}

// Handle implements JobHandler. Batch failures inside a document are part of
// the result; only fetch, input and context errors fail the job.
func (r *Runner) Handle(ctx context.Context, job Job) error {
	ej, ok := job.(*ExtractionJob)
	if !ok {
		return fmt.Errorf("Runner.Handle: unexpected job type: %T", job)
	}

	log := r.Log.With().
		Str("job_id", ej.JobID).
		Str("kind", string(ej.Kind)).
		Int("documents", len(ej.GCSURIs)).
		Logger()
	log.Info().Msg("Processing extraction job")

	runID := r.startRun(ctx, ej)

	result, records, failures, err := r.run(ctx, ej)
	if err != nil {
		if r.Runs != nil && runID != "" {
			r.Runs.MarkRunFailed(ctx, runID, err)
		}
		log.Error().Err(err).Msg("Extraction job failed")
		return err
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("Runner.Handle: encoding result: %w", err)
	}
	ej.Result = payload
	ej.Records = records
	ej.Failures = failures

	if r.Runs != nil && runID != "" {
		if err := r.Runs.MarkRunSucceeded(ctx, runID, records, failures); err != nil {
			log.Warn().Err(err).Str("run_id", runID).Msg("Failed to record run")
		}
	}

	log.Info().
		Int("records", records).
		Int("failures", failures).
		Msg("Extraction job completed")
	return nil
}

func (r *Runner) startRun(ctx context.Context, job *ExtractionJob) string {
	if r.Runs == nil {
		return ""
	}
	runID, err := r.Runs.StartRun(ctx, job.JobID, string(job.Kind))
	if err != nil {
		r.Log.Warn().Err(err).Str("job_id", job.JobID).Msg("Failed to start run")
		return ""
	}
	job.RunID = runID
	return runID
}

func (r *Runner) run(ctx context.Context, job *ExtractionJob) (any, int, int, error) {
	if !job.Kind.Valid() {
		return nil, 0, 0, fmt.Errorf("Runner.run: unknown kind %q", job.Kind)
	}
	if len(job.GCSURIs) == 0 {
		return nil, 0, 0, fmt.Errorf("Runner.run: no documents")
	}

	docs, err := pipeline.FetchDocuments(ctx, r.Storage, job.GCSURIs)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("Runner.run: %w", err)
	}

	switch job.Kind {
	case KindStatement:
		period, err := dates.ParseRange(job.PeriodFrom, job.PeriodTo)
		if err != nil {
			return nil, 0, 0, fmt.Errorf("Runner.run: %w", err)
		}
		res, err := r.Statements.Process(ctx, pipeline.StatementInput{
			Pages:          docs,
			OpeningBalance: job.OpeningBalance,
			Period:         period,
		})
		if err != nil {
			return nil, 0, 0, fmt.Errorf("Runner.run: %w", err)
		}
		return res, len(res.Transactions), len(res.Failures), nil

	case KindInvoices:
		res, err := r.Invoices.Process(ctx, pipeline.InvoiceInput{
			Documents: docs,
			Company:   invoice.Company{Name: job.CompanyName, TRN: job.CompanyTRN},
		})
		if err != nil {
			return nil, 0, 0, fmt.Errorf("Runner.run: %w", err)
		}
		return res, len(res.Invoices), len(res.Failures), nil

	default:
		res, err := r.TrialBalances.Process(ctx, docs)
		if err != nil {
			return nil, 0, 0, fmt.Errorf("Runner.run: %w", err)
		}
		return res, len(res.Entries), len(res.Failures), nil
	}
}
