package pipeline

import (
	"errors"

	"github.com/tech6-code/DocuFlow-AI-sub007/internal/domain"
	"github.com/tech6-code/DocuFlow-AI-sub007/internal/extraction"
	"github.com/tech6-code/DocuFlow-AI-sub007/internal/ledger"
	"github.com/tech6-code/DocuFlow-AI-sub007/internal/retry"
)

// FailureKind tells the caller how a batch was lost.
type FailureKind string

const (
	// FailureTransient means the provider kept rate limiting until retries ran out.
	FailureTransient FailureKind = "transient"
	// FailureMalformed means the model answered but nothing could be parsed.
	FailureMalformed FailureKind = "malformed"
	// FailureExtraction is any other extraction call error.
	FailureExtraction FailureKind = "extraction"
)

// BatchFailure records one page or batch that produced no records.
type BatchFailure struct {
	Batch  int         `json:"batch"`
	Source string      `json:"source"`
	Kind   FailureKind `json:"kind"`
	Error  string      `json:"error,omitempty"`
}

func failureFor(batch int, source string, err error) BatchFailure {
	kind := FailureExtraction
	switch {
	case errors.Is(err, retry.ErrExhausted):
		kind = FailureTransient
	case errors.Is(err, extraction.ErrEmptyResponse):
		kind = FailureMalformed
	}
	return BatchFailure{Batch: batch, Source: source, Kind: kind, Error: err.Error()}
}

// LedgerResult is the normalized bank statement.
type LedgerResult struct {
	Transactions []domain.Transaction `json:"transactions"`
	Verdict      ledger.Verdict       `json:"verdict"`
	Failures     []BatchFailure       `json:"failures,omitempty"`
}

// InvoiceResult is the normalized invoice set.
type InvoiceResult struct {
	Invoices []domain.Invoice `json:"invoices"`
	Failures []BatchFailure   `json:"failures,omitempty"`
}

// TrialBalanceResult is the normalized trial balance.
type TrialBalanceResult struct {
	Entries  []domain.TrialBalanceEntry `json:"entries"`
	Failures []BatchFailure             `json:"failures,omitempty"`
}
