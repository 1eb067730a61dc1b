package pipeline

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/tech6-code/DocuFlow-AI-sub007/internal/dates"
	"github.com/tech6-code/DocuFlow-AI-sub007/internal/domain"
	"github.com/tech6-code/DocuFlow-AI-sub007/internal/extraction"
)

// StatementInput is one bank statement, page by page.
type StatementInput struct {
	Pages          []Document
	OpeningBalance float64
	// Period optionally restricts the output to a date range.
	Period dates.Range
}

// StatementProcessor extracts bank statement pages one at a time and merges
// them into a single normalized ledger.
type StatementProcessor struct {
	deps      Deps
	pageDelay time.Duration
	pipeline  *Pipeline
}

// NewStatementProcessor creates a processor that waits pageDelay between
// page calls. A non-positive delay disables pacing.
func NewStatementProcessor(deps Deps, pageDelay time.Duration) *StatementProcessor {
	deps = deps.withDefaults()
	return &StatementProcessor{
		deps:      deps,
		pageDelay: pageDelay,
		pipeline:  NewLedgerPipeline(deps),
	}
}

// Process extracts every page sequentially and normalizes the merged rows.
// Failed pages are reported in the result and skipped.
func (p *StatementProcessor) Process(ctx context.Context, in StatementInput) (LedgerResult, error) {
	if p.deps.Extractor == nil {
		return LedgerResult{}, ErrNoExtractor
	}

	limit := rate.Inf
	if p.pageDelay > 0 {
		limit = rate.Every(p.pageDelay)
	}
	limiter := rate.NewLimiter(limit, 1)

	var merged []domain.Transaction
	var failures []BatchFailure
	for i, page := range in.Pages {
		if err := limiter.Wait(ctx); err != nil {
			return LedgerResult{}, fmt.Errorf("StatementProcessor.Process: page %d: %w", i+1, err)
		}

		req := extraction.Request{
			Parts:       []extraction.Part{page.part()},
			Instruction: extraction.StatementPrompt(i+1, len(in.Pages)),
			Schema:      extraction.StatementSchema(),
		}
		txs, failure := runBatch(ctx, p.deps, i, page.Name, req, domain.DecodeTransactions)
		if failure != nil {
			failures = append(failures, *failure)
			continue
		}

		p.deps.Log.Info().
			Int("page", i+1).
			Int("pages", len(in.Pages)).
			Int("rows", len(txs)).
			Msg("Extracted statement page")
		merged = append(merged, withSourceFile(txs, page.Name)...)
	}

	res, err := p.normalize(ctx, merged, in)
	if err != nil {
		return LedgerResult{}, err
	}
	res.Failures = failures
	return res, nil
}

// NormalizeText runs the post-extraction half of Process on raw model text.
func (p *StatementProcessor) NormalizeText(ctx context.Context, source, text string, in StatementInput) (LedgerResult, error) {
	txs, failure := parseBatch(ctx, p.deps, 0, source, text, domain.DecodeTransactions)
	res, err := p.normalize(ctx, withSourceFile(txs, source), in)
	if err != nil {
		return LedgerResult{}, err
	}
	if failure != nil {
		res.Failures = []BatchFailure{*failure}
	}
	return res, nil
}

func (p *StatementProcessor) normalize(ctx context.Context, txs []domain.Transaction, in StatementInput) (LedgerResult, error) {
	state := &LedgerState{
		Transactions:   txs,
		OpeningBalance: in.OpeningBalance,
		Period:         in.Period,
	}
	if err := p.pipeline.Execute(ctx, state); err != nil {
		return LedgerResult{}, fmt.Errorf("StatementProcessor.normalize: %w", err)
	}
	if state.Transactions == nil {
		state.Transactions = []domain.Transaction{}
	}
	return LedgerResult{Transactions: state.Transactions, Verdict: state.Verdict}, nil
}

func withSourceFile(txs []domain.Transaction, source string) []domain.Transaction {
	for i := range txs {
		if txs[i].SourceFile == "" {
			txs[i].SourceFile = source
		}
	}
	return txs
}
