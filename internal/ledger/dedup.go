// Package ledger reconciles extracted bank statement rows: it removes OCR
// duplicates, folds wrapped description lines back into their row and
// detects swapped debit/credit columns.
package ledger

import (
	"fmt"
	"math"
	"strings"

	"github.com/tech6-code/DocuFlow-AI-sub007/internal/domain"
)

// amountEpsilon is the tolerance for comparing printed amounts.
const amountEpsilon = 0.01

// DefaultPlaceholderDates are date cells that mark a continuation row.
var DefaultPlaceholderDates = []string{"-", "N/A", "..", "."}

// Deduplicator removes duplicate rows and merges continuation rows in a
// single ordered pass.
type Deduplicator struct {
	placeholders map[string]struct{}
}

// NewDeduplicator builds a deduplicator that treats an empty date or any of
// placeholders as a continuation marker.
func NewDeduplicator(placeholders []string) *Deduplicator {
	if len(placeholders) == 0 {
		placeholders = DefaultPlaceholderDates
	}
	set := make(map[string]struct{}, len(placeholders))
	for _, p := range placeholders {
		set[strings.ToUpper(strings.TrimSpace(p))] = struct{}{}
	}
	return &Deduplicator{placeholders: set}
}

// Dedup returns the deduplicated ledger using the default placeholders.
func Dedup(txs []domain.Transaction) []domain.Transaction {
	return NewDeduplicator(nil).Dedup(txs)
}

// Action is the outcome of folding one row into the ledger.
type Action int

const (
	ActionAccept Action = iota
	ActionDuplicate
	ActionContinuation
	ActionBalanceHeader
	ActionRedundant
)

func (a Action) String() string {
	switch a {
	case ActionAccept:
		return "accept"
	case ActionDuplicate:
		return "duplicate"
	case ActionContinuation:
		return "continuation"
	case ActionBalanceHeader:
		return "balance_header"
	case ActionRedundant:
		return "redundant"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// fold is the accumulator threaded through the pass.
type fold struct {
	seen   map[string]struct{}
	result []domain.Transaction
}

func (f *fold) prev() *domain.Transaction {
	if len(f.result) == 0 {
		return nil
	}
	return &f.result[len(f.result)-1]
}

// rule inspects the current row against the accumulator. It returns true
// when it consumed the row.
type rule struct {
	action Action
	apply  func(d *Deduplicator, f *fold, tx domain.Transaction, key string) bool
}

// rules are evaluated in priority order; the first that applies wins.
var rules = []rule{
	{ActionDuplicate, func(_ *Deduplicator, f *fold, _ domain.Transaction, key string) bool {
		_, dup := f.seen[key]
		return dup
	}},
	{ActionContinuation, func(d *Deduplicator, f *fold, tx domain.Transaction, _ string) bool {
		prev := f.prev()
		if prev == nil || !d.isPlaceholder(tx.Date) {
			return false
		}
		mergeContinuation(prev, tx)
		return true
	}},
	{ActionBalanceHeader, func(_ *Deduplicator, f *fold, tx domain.Transaction, _ string) bool {
		prev := f.prev()
		return prev != nil &&
			tx.Debit == 0 && tx.Credit == 0 && tx.Balance != 0 &&
			near(tx.Balance, prev.Balance)
	}},
	{ActionRedundant, func(_ *Deduplicator, f *fold, tx domain.Transaction, _ string) bool {
		prev := f.prev()
		return prev != nil &&
			tx.Date == prev.Date &&
			near(tx.Debit, prev.Debit) &&
			near(tx.Credit, prev.Credit) &&
			(tx.Balance == 0 || prev.Balance == 0 || near(tx.Balance, prev.Balance))
	}},
}

// Dedup folds txs into an ordered ledger. Input rows are not modified.
func (d *Deduplicator) Dedup(txs []domain.Transaction) []domain.Transaction {
	out, _ := d.DedupWithActions(txs)
	return out
}

// DedupWithActions is Dedup that also reports the action taken for each input row.
func (d *Deduplicator) DedupWithActions(txs []domain.Transaction) ([]domain.Transaction, []Action) {
	f := &fold{
		seen:   make(map[string]struct{}, len(txs)),
		result: make([]domain.Transaction, 0, len(txs)),
	}
	actions := make([]Action, len(txs))

	for i, raw := range txs {
		tx := clean(raw)
		key := Fingerprint(tx)

		actions[i] = ActionAccept
		for _, r := range rules {
			if r.apply(d, f, tx, key) {
				actions[i] = r.action
				break
			}
		}
		if actions[i] == ActionAccept {
			f.result = append(f.result, tx)
			f.seen[key] = struct{}{}
		}
	}
	return f.result, actions
}

// Fingerprint identifies exact duplicates.
func Fingerprint(tx domain.Transaction) string {
	return fmt.Sprintf("%s|%s|%.2f|%.2f|%.2f|%s",
		tx.Date,
		strings.ToLower(tx.Description),
		tx.Debit,
		tx.Credit,
		tx.Balance,
		strings.ToUpper(tx.Currency),
	)
}

func (d *Deduplicator) isPlaceholder(date string) bool {
	if date == "" {
		return true
	}
	_, ok := d.placeholders[strings.ToUpper(date)]
	return ok
}

func mergeContinuation(prev *domain.Transaction, tx domain.Transaction) {
	prev.Description = strings.TrimSpace(prev.Description + " " + tx.Description)
	if prev.Debit == 0 && tx.Debit != 0 {
		prev.Debit = tx.Debit
	}
	if prev.Credit == 0 && tx.Credit != 0 {
		prev.Credit = tx.Credit
	}
	if tx.Balance != 0 {
		prev.Balance = tx.Balance
	}
}

func clean(tx domain.Transaction) domain.Transaction {
	tx.Date = strings.TrimSpace(tx.Date)
	tx.Description = strings.TrimSpace(tx.Description)
	tx.Debit = finite(tx.Debit)
	tx.Credit = finite(tx.Credit)
	tx.Balance = finite(tx.Balance)
	return tx
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func near(a, b float64) bool {
	return math.Abs(a-b) < amountEpsilon
}
