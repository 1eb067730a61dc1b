package pipeline

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/tech6-code/DocuFlow-AI-sub007/internal/category"
	"github.com/tech6-code/DocuFlow-AI-sub007/internal/currency"
	"github.com/tech6-code/DocuFlow-AI-sub007/internal/extraction"
	"github.com/tech6-code/DocuFlow-AI-sub007/internal/ledger"
	"github.com/tech6-code/DocuFlow-AI-sub007/internal/repair"
)

// StorageService is an interface for fetching source documents.
type StorageService interface {
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

// Deps bundles the collaborators shared by the processors. Nil fields are
// filled with defaults; Extractor may stay nil when only the NormalizeText
// entry points are used.
type Deps struct {
	Extractor    extraction.Extractor
	Parser       *repair.Parser
	Deduplicator *ledger.Deduplicator
	Validator    *ledger.Validator
	Converter    *currency.Converter
	Categories   *category.Normalizer
	// NameOverlapThreshold tunes invoice counterparty name matching.
	NameOverlapThreshold float64
	Log                  zerolog.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Parser == nil {
		d.Parser = repair.NewParser(d.Log, nil)
	}
	if d.Deduplicator == nil {
		d.Deduplicator = ledger.NewDeduplicator(nil)
	}
	if d.Validator == nil {
		d.Validator = ledger.NewValidator(ledger.DefaultSwapRejectionBias)
	}
	if d.Converter == nil {
		d.Converter = currency.NewConverter(nil, nil, currency.DefaultReportingCurrency, d.Log)
	}
	if d.Categories == nil {
		d.Categories = category.NewNormalizer(nil, d.Log)
	}
	return d
}
