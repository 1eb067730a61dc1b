package pipeline

import (
	"context"
	"fmt"

	"github.com/tech6-code/DocuFlow-AI-sub007/internal/domain"
	"github.com/tech6-code/DocuFlow-AI-sub007/internal/extraction"
	"github.com/tech6-code/DocuFlow-AI-sub007/internal/invoice"
)

// InvoiceInput is a set of invoice documents, each sent as one batch.
type InvoiceInput struct {
	Documents []Document
	Company   invoice.Company
}

// InvoiceProcessor extracts invoices with bounded concurrency.
type InvoiceProcessor struct {
	deps        Deps
	concurrency int
}

// NewInvoiceProcessor creates a processor keeping at most concurrency
// batches in flight.
func NewInvoiceProcessor(deps Deps, concurrency int) *InvoiceProcessor {
	return &InvoiceProcessor{deps: deps.withDefaults(), concurrency: concurrency}
}

// Process extracts every document and normalizes the invoices in document order.
func (p *InvoiceProcessor) Process(ctx context.Context, in InvoiceInput) (InvoiceResult, error) {
	if p.deps.Extractor == nil {
		return InvoiceResult{}, ErrNoExtractor
	}

	instruction := extraction.InvoicePrompt(in.Company.Name, in.Company.TRN)
	invs, failures, err := runConcurrent(ctx, p.concurrency, len(in.Documents), func(ctx context.Context, i int) ([]domain.Invoice, *BatchFailure) {
		doc := in.Documents[i]
		req := extraction.Request{
			Parts:       []extraction.Part{doc.part()},
			Instruction: instruction,
			Schema:      extraction.InvoiceSchema(),
		}
		out, failure := runBatch(ctx, p.deps, i, doc.Name, req, domain.DecodeInvoices)
		return invoicesWithSource(out, doc.Name), failure
	})
	if err != nil {
		return InvoiceResult{}, fmt.Errorf("InvoiceProcessor.Process: %w", err)
	}

	return InvoiceResult{Invoices: p.normalize(ctx, invs, in.Company), Failures: failures}, nil
}

// NormalizeText runs the post-extraction half of Process on raw model text.
func (p *InvoiceProcessor) NormalizeText(ctx context.Context, source, text string, company invoice.Company) InvoiceResult {
	invs, failure := parseBatch(ctx, p.deps, 0, source, text, domain.DecodeInvoices)
	res := InvoiceResult{Invoices: p.normalize(ctx, invoicesWithSource(invs, source), company)}
	if failure != nil {
		res.Failures = []BatchFailure{*failure}
	}
	return res
}

// normalize reconciles totals, classifies and converts.
func (p *InvoiceProcessor) normalize(ctx context.Context, invs []domain.Invoice, company invoice.Company) []domain.Invoice {
	classifier := invoice.NewClassifier(company, p.deps.NameOverlapThreshold)

	out := make([]domain.Invoice, len(invs))
	for i, inv := range invs {
		out[i] = classifier.Classify(invoice.ReconcileTotals(inv))
	}
	return p.deps.Converter.ConvertInvoices(ctx, out)
}

func invoicesWithSource(invs []domain.Invoice, source string) []domain.Invoice {
	for i := range invs {
		if invs[i].SourceFile == "" {
			invs[i].SourceFile = source
		}
	}
	return invs
}
