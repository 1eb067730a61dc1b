package pipeline

import (
	"context"
	"fmt"

	"github.com/tech6-code/DocuFlow-AI-sub007/internal/domain"
	"github.com/tech6-code/DocuFlow-AI-sub007/internal/extraction"
)

// TrialBalanceProcessor extracts trial balance pages with bounded concurrency.
type TrialBalanceProcessor struct {
	deps        Deps
	concurrency int
}

// NewTrialBalanceProcessor creates a processor keeping at most concurrency
// batches in flight.
func NewTrialBalanceProcessor(deps Deps, concurrency int) *TrialBalanceProcessor {
	return &TrialBalanceProcessor{deps: deps.withDefaults(), concurrency: concurrency}
}

// Process extracts every document and categorizes the merged entries. The
// entries are merged in document order before normalization since section
// headers carry over page breaks.
func (p *TrialBalanceProcessor) Process(ctx context.Context, docs []Document) (TrialBalanceResult, error) {
	if p.deps.Extractor == nil {
		return TrialBalanceResult{}, ErrNoExtractor
	}

	instruction := extraction.TrialBalancePrompt()
	entries, failures, err := runConcurrent(ctx, p.concurrency, len(docs), func(ctx context.Context, i int) ([]domain.TrialBalanceEntry, *BatchFailure) {
		req := extraction.Request{
			Parts:       []extraction.Part{docs[i].part()},
			Instruction: instruction,
			Schema:      extraction.TrialBalanceSchema(),
		}
		return runBatch(ctx, p.deps, i, docs[i].Name, req, domain.DecodeTrialBalance)
	})
	if err != nil {
		return TrialBalanceResult{}, fmt.Errorf("TrialBalanceProcessor.Process: %w", err)
	}

	return TrialBalanceResult{Entries: p.normalize(entries), Failures: failures}, nil
}

// NormalizeText runs the post-extraction half of Process on raw model text.
func (p *TrialBalanceProcessor) NormalizeText(ctx context.Context, source, text string) TrialBalanceResult {
	entries, failure := parseBatch(ctx, p.deps, 0, source, text, domain.DecodeTrialBalance)
	res := TrialBalanceResult{Entries: p.normalize(entries)}
	if failure != nil {
		res.Failures = []BatchFailure{*failure}
	}
	return res
}

func (p *TrialBalanceProcessor) normalize(entries []domain.TrialBalanceEntry) []domain.TrialBalanceEntry {
	out := p.deps.Categories.Normalize(entries)
	if out == nil {
		out = []domain.TrialBalanceEntry{}
	}
	return out
}
