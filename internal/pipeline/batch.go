package pipeline

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/tech6-code/DocuFlow-AI-sub007/internal/extraction"
)

// ErrNoExtractor is returned by Process when the processor was built without
// an extraction backend.
var ErrNoExtractor = errors.New("pipeline: no extractor configured")

// runBatch sends one batch to the model and decodes whatever comes back.
// A failed batch yields no records and a BatchFailure; it never aborts the
// document.
func runBatch[T any](ctx context.Context, deps Deps, index int, source string, req extraction.Request, decode func(any) []T) ([]T, *BatchFailure) {
	resp, err := deps.Extractor.Extract(ctx, req)
	if err != nil {
		deps.Log.Error().
			Err(err).
			Int("batch", index).
			Str("source", source).
			Msg("Extraction failed, skipping batch")
		f := failureFor(index, source, err)
		return nil, &f
	}
	return parseBatch(ctx, deps, index, source, resp.Text, decode)
}

func parseBatch[T any](ctx context.Context, deps Deps, index int, source, text string, decode func(any) []T) ([]T, *BatchFailure) {
	v := deps.Parser.Parse(ctx, source, text)
	if v == nil {
		return nil, &BatchFailure{Batch: index, Source: source, Kind: FailureMalformed}
	}
	return decode(v), nil
}

// runConcurrent runs n batches with at most limit in flight and concatenates
// the records in batch order regardless of completion order.
func runConcurrent[T any](ctx context.Context, limit, n int, fn func(ctx context.Context, i int) ([]T, *BatchFailure)) ([]T, []BatchFailure, error) {
	type output struct {
		records []T
		failure *BatchFailure
	}
	outputs := make([]output, n)

	if limit < 1 {
		limit = DefaultBatchConcurrency
	}
	var g errgroup.Group
	g.SetLimit(limit)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			records, failure := fn(ctx, i)
			outputs[i] = output{records: records, failure: failure}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var records []T
	var failures []BatchFailure
	for _, o := range outputs {
		if o.failure != nil {
			failures = append(failures, *o.failure)
			continue
		}
		records = append(records, o.records...)
	}
	return records, failures, nil
}
