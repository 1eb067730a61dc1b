// Package bigquery records extraction diagnostics in BigQuery: raw model
// output that could not be repaired and one row per extraction run.
package bigquery

import (
	"context"
	"fmt"
	"unicode/utf8"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/option"
)

const (
	modelOutputsTable   = "model_outputs"
	extractionRunsTable = "extraction_runs"

	// maxTextLen caps stored text and error columns.
	maxTextLen = 100_000
	maxErrLen  = 2000
)

// execFunc runs one parameterized DML statement to completion.
type execFunc func(ctx context.Context, sql string, params []bigquery.QueryParameter) error

// Repository holds a shared BigQuery client for the diagnostic tables.
type Repository struct {
	client    *bigquery.Client
	project   string
	dataset   string
	modelName string
	exec      execFunc
}

// NewRepository creates a repository writing to project.dataset. modelName
// is stamped on archived model output rows.
func NewRepository(ctx context.Context, project, dataset, modelName string, opts ...option.ClientOption) (*Repository, error) {
	client, err := bigquery.NewClient(ctx, project, opts...)
	if err != nil {
		return nil, fmt.Errorf("NewRepository: creating client: %w", err)
	}
	r := &Repository{
		client:    client,
		project:   project,
		dataset:   dataset,
		modelName: modelName,
	}
	r.exec = r.runDML
	return r, nil
}

// Close closes the BigQuery client connection.
func (r *Repository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

func (r *Repository) table(name string) string {
	return "`" + r.project + "." + r.dataset + "." + name + "`"
}

// runDML runs sql as a DML job. Rows written through the streaming inserter
// cannot be updated for a while, DML rows can.
func (r *Repository) runDML(ctx context.Context, sql string, params []bigquery.QueryParameter) error {
	q := r.client.Query(sql)
	q.Parameters = params

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}
	return nil
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func wrap(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
