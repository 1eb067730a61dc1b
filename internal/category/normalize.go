// Package category maps trial balance accounts and transaction labels onto
// the fixed accounting taxonomy (Assets, Liabilities, Equity, Income, Expenses).
package category

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/tech6-code/DocuFlow-AI-sub007/internal/domain"
)

// Normalizer categorizes and cleans trial balance entries.
type Normalizer struct {
	rules *Rules
	log   zerolog.Logger
}

// NewNormalizer creates a normalizer. A nil rules table selects the embedded one.
func NewNormalizer(rules *Rules, log zerolog.Logger) *Normalizer {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Normalizer{rules: rules, log: log}
}

// Normalize runs the entries through the default rules.
func Normalize(entries []domain.TrialBalanceEntry) []domain.TrialBalanceEntry {
	return NewNormalizer(nil, zerolog.Nop()).Normalize(entries)
}

// Normalize assigns a category to every entry, drops header, caption, total
// and empty rows, nets rows carrying both debit and credit and removes
// duplicates. Every returned entry has exactly one non-zero side.
func (n *Normalizer) Normalize(entries []domain.TrialBalanceEntry) []domain.TrialBalanceEntry {
	categorized := n.propagate(entries)
	out := n.filter(categorized)

	n.log.Debug().
		Int("input", len(entries)).
		Int("categorized", len(categorized)).
		Int("output", len(out)).
		Msg("Normalized trial balance")
	return out
}

// propagate is the first pass: section headers set the running category and
// are removed; every other entry gets a category.
func (n *Normalizer) propagate(entries []domain.TrialBalanceEntry) []domain.TrialBalanceEntry {
	hasHeaders := false
	for _, e := range entries {
		if _, ok := n.rules.Header(e.Account); ok {
			hasHeaders = true
			break
		}
	}

	var current domain.Category
	out := make([]domain.TrialBalanceEntry, 0, len(entries))
	for _, e := range entries {
		if c, ok := n.rules.Header(e.Account); ok {
			current = c
			continue
		}
		e.Account = strings.TrimSpace(e.Account)
		e.Category = n.resolve(e, current, hasHeaders)
		out = append(out, e)
	}
	return out
}

// resolve picks the category of one entry. With section headers in the
// batch, keyword inference wins unless it found nothing and a section is
// active. Without headers the entry's own category is trusted first.
func (n *Normalizer) resolve(e domain.TrialBalanceEntry, current domain.Category, hasHeaders bool) domain.Category {
	inferred, matched := n.rules.Infer(e.Account)

	if hasHeaders {
		if !matched && current != "" {
			return current
		}
		return inferred
	}

	if declared, ok := n.rules.Label(string(e.Category)); ok {
		return declared
	}
	if current != "" {
		return current
	}
	return inferred
}

// filter is the second pass.
func (n *Normalizer) filter(entries []domain.TrialBalanceEntry) []domain.TrialBalanceEntry {
	seen := make(map[string]struct{}, len(entries))
	out := make([]domain.TrialBalanceEntry, 0, len(entries))

	for _, e := range entries {
		if e.Account == "" || n.rules.IsTableHeader(e.Account) || n.rules.IsTotal(e.Account) {
			continue
		}

		netted, ok := net(e)
		if !ok {
			continue
		}

		key := fmt.Sprintf("%s|%s|%.2f|%.2f", netted.Category, strings.ToLower(netted.Account), netted.Debit, netted.Credit)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, netted)
	}
	return out
}

// net moves negative amounts to the opposite side and collapses an entry
// with both sides set into its balance. It reports false when nothing is left.
func net(e domain.TrialBalanceEntry) (domain.TrialBalanceEntry, bool) {
	debit := decimal.NewFromFloat(e.Debit)
	credit := decimal.NewFromFloat(e.Credit)

	balance := debit.Sub(credit)
	switch balance.Sign() {
	case 0:
		return e, false
	case 1:
		e.Debit, e.Credit = balance.Round(2).InexactFloat64(), 0
	default:
		e.Debit, e.Credit = 0, balance.Neg().Round(2).InexactFloat64()
	}
	if e.Debit == 0 && e.Credit == 0 {
		return e, false
	}
	return e, true
}

// Canonical maps a free-form category label onto the taxonomy, falling back
// to keyword inference on the label text. matched is false when the default
// category was returned.
func (n *Normalizer) Canonical(label string) (domain.Category, bool) {
	if c, ok := n.rules.Label(label); ok {
		return c, true
	}
	if c, ok := n.rules.Header(label); ok {
		return c, true
	}
	return n.rules.Infer(label)
}

// CanonicalizeTransactions rewrites non-empty transaction categories into
// taxonomy names. Empty categories stay empty.
func (n *Normalizer) CanonicalizeTransactions(txs []domain.Transaction) []domain.Transaction {
	out := make([]domain.Transaction, len(txs))
	for i, tx := range txs {
		if strings.TrimSpace(tx.Category) != "" {
			c, _ := n.Canonical(tx.Category)
			tx.Category = string(c)
		}
		out[i] = tx
	}
	return out
}
