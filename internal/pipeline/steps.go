package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tech6-code/DocuFlow-AI-sub007/internal/category"
	"github.com/tech6-code/DocuFlow-AI-sub007/internal/currency"
	"github.com/tech6-code/DocuFlow-AI-sub007/internal/dates"
	"github.com/tech6-code/DocuFlow-AI-sub007/internal/domain"
	"github.com/tech6-code/DocuFlow-AI-sub007/internal/ledger"
)

// PipelineStep represents a single step in the ledger normalization pipeline.
type PipelineStep interface {
	Execute(ctx context.Context, state *LedgerState) error
}

// LedgerState holds the shared state across all pipeline steps.
type LedgerState struct {
	Transactions   []domain.Transaction
	OpeningBalance float64
	Period         dates.Range
	Verdict        ledger.Verdict
}

// Step 1: CanonicalDatesStep rewrites every parseable date as YYYY-MM-DD so
// rows from different pages compare equal.
type CanonicalDatesStep struct{}

func (s *CanonicalDatesStep) Execute(ctx context.Context, state *LedgerState) error {
	for i := range state.Transactions {
		state.Transactions[i].Date = dates.Canonical(state.Transactions[i].Date)
	}
	return nil
}

// Step 2: DedupStep removes duplicates and merges continuation rows.
type DedupStep struct {
	Deduplicator *ledger.Deduplicator
	Log          zerolog.Logger
}

func (s *DedupStep) Execute(ctx context.Context, state *LedgerState) error {
	before := len(state.Transactions)
	state.Transactions = s.Deduplicator.Dedup(state.Transactions)
	s.Log.Debug().
		Int("before", before).
		Int("after", len(state.Transactions)).
		Msg("Deduplicated ledger")
	return nil
}

// Step 3: PeriodFilterStep keeps rows inside the requested period. Rows
// with unreadable dates are kept.
type PeriodFilterStep struct{}

func (s *PeriodFilterStep) Execute(ctx context.Context, state *LedgerState) error {
	if state.Period.IsZero() {
		return nil
	}
	kept := state.Transactions[:0]
	for _, tx := range state.Transactions {
		if state.Period.Contains(tx.Date) {
			kept = append(kept, tx)
		}
	}
	state.Transactions = kept
	return nil
}

// Step 4: DirectionStep swaps debit and credit when the running balance
// proves the columns were read the wrong way round.
type DirectionStep struct {
	Validator *ledger.Validator
	Log       zerolog.Logger
}

func (s *DirectionStep) Execute(ctx context.Context, state *LedgerState) error {
	txs, verdict := s.Validator.Validate(state.Transactions, state.OpeningBalance)
	state.Transactions = txs
	state.Verdict = verdict

	if verdict.Swapped {
		s.Log.Info().
			Str("winner", verdict.Winner.String()).
			Int("balance_rows", verdict.BalanceRows).
			Msg("Swapped debit and credit columns")
	}
	return nil
}

// Step 5: ConvertStep converts every row into the reporting currency.
type ConvertStep struct {
	Converter *currency.Converter
}

func (s *ConvertStep) Execute(ctx context.Context, state *LedgerState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	state.Transactions = s.Converter.ConvertTransactions(ctx, state.Transactions)
	return nil
}

// Step 6: CategoryStep maps free-form category labels onto the taxonomy.
type CategoryStep struct {
	Normalizer *category.Normalizer
}

func (s *CategoryStep) Execute(ctx context.Context, state *LedgerState) error {
	state.Transactions = s.Normalizer.CanonicalizeTransactions(state.Transactions)
	return nil
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []PipelineStep
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps in the pipeline sequentially.
func (p *Pipeline) Execute(ctx context.Context, state *LedgerState) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d failed: %w", i+1, err)
		}
	}
	return nil
}

// NewLedgerPipeline creates the standard 6-step pipeline for normalizing a
// merged bank statement ledger.
func NewLedgerPipeline(deps Deps) *Pipeline {
	deps = deps.withDefaults()
	return NewPipeline(
		&CanonicalDatesStep{},
		&DedupStep{Deduplicator: deps.Deduplicator, Log: deps.Log},
		&PeriodFilterStep{},
		&DirectionStep{Validator: deps.Validator, Log: deps.Log},
		&ConvertStep{Converter: deps.Converter},
		&CategoryStep{Normalizer: deps.Categories},
	)
}
