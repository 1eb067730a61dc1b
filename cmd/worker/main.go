package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tech6-code/DocuFlow-AI-sub007/internal/app"
	"github.com/tech6-code/DocuFlow-AI-sub007/internal/config"
	"github.com/tech6-code/DocuFlow-AI-sub007/internal/jobs"
	"github.com/tech6-code/DocuFlow-AI-sub007/internal/jobs/inmemory"
	"github.com/tech6-code/DocuFlow-AI-sub007/internal/logger"
)

const pollInterval = 250 * time.Millisecond

func main() {
	os.Exit(run())
}

func run() int {
	jobsFile := flag.String("jobs", "-", "file of extraction jobs as JSON objects, - for stdin")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New()
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log := logger.NewWithLevel(cfg.LogLevel)

	in := io.Reader(os.Stdin)
	if *jobsFile != "-" {
		f, err := os.Open(*jobsFile)
		if err != nil {
			log.Fatal().Err(err).Str("file", *jobsFile).Msg("Failed to open jobs file")
		}
		defer f.Close()
		in = f
	}

	// Cancel on interrupt
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithContext(ctx, log)

	application, err := app.New(ctx, cfg, log, app.Options{Extraction: true})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer application.Close()

	runner, err := application.Runner()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create job runner")
	}

	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(cfg.Jobs.BufferSize, cfg.Jobs.Workers, jobStore).
		WithRetries(cfg.Jobs.MaxRetries, time.Second)

	log.Info().Int("workers", cfg.Jobs.Workers).Msg("Starting worker service")
	if err := jobQueue.Start(ctx, runner.Handle); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	failed, runErr := runJobs(ctx, in, os.Stdout, jobQueue, jobStore, pollInterval)

	log.Info().Msg("Shutting down worker service...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Stop the queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}

	if runErr != nil {
		log.Error().Err(runErr).Msg("Worker run aborted")
		return 1
	}
	if failed > 0 {
		log.Warn().Int("failed", failed).Msg("Some jobs failed")
		return 1
	}
	log.Info().Msg("Worker service exited")
	return 0
}

// runJobs publishes every job decoded from in, waits until each one has
// completed or exhausted its retries, then writes the final job records to
// out as one JSON object per line, in input order. It returns the number of
// failed jobs.
func runJobs(ctx context.Context, in io.Reader, out io.Writer, publisher jobs.Publisher, store jobs.JobStore, poll time.Duration) (int, error) {
	var ids []string
	dec := json.NewDecoder(in)
	for n := 1; ; n++ {
		var job jobs.ExtractionJob
		if err := dec.Decode(&job); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return 0, fmt.Errorf("decoding job %d: %w", n, err)
		}
		if !job.Kind.Valid() {
			return 0, fmt.Errorf("job %d: unknown kind %q", n, job.Kind)
		}
		if len(job.GCSURIs) == 0 {
			return 0, fmt.Errorf("job %d: gcs_uris is required", n)
		}
		job.Status = ""
		job.RetryCount = 0
		if err := publisher.Publish(ctx, &job); err != nil {
			return 0, fmt.Errorf("publishing job %d: %w", n, err)
		}
		ids = append(ids, job.JobID)
	}

	final, err := waitForJobs(ctx, store, ids, poll)
	if err != nil {
		return 0, err
	}

	enc := json.NewEncoder(out)
	failed := 0
	for _, job := range final {
		if job.Status == jobs.JobStatusFailed {
			failed++
		}
		if err := enc.Encode(job); err != nil {
			return failed, fmt.Errorf("writing job %s: %w", job.JobID, err)
		}
	}
	return failed, nil
}

func waitForJobs(ctx context.Context, store jobs.JobStore, ids []string, poll time.Duration) ([]*jobs.ExtractionJob, error) {
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		final := make([]*jobs.ExtractionJob, 0, len(ids))
		for _, id := range ids {
			job, err := store.GetJob(ctx, id)
			if err != nil {
				return nil, err
			}
			if job.Status != jobs.JobStatusCompleted && job.Status != jobs.JobStatusFailed {
				break
			}
			final = append(final, job)
		}
		if len(final) == len(ids) {
			return final, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
