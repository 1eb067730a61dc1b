package ledger

import (
	"fmt"
	"math"

	"github.com/tech6-code/DocuFlow-AI-sub007/internal/domain"
)

// DefaultSwapRejectionBias is the per-row error under which the best
// unswapped reading is kept even when a swapped reading scores better.
const DefaultSwapRejectionBias = 0.5

// Hypothesis is one reading of row order and column mapping.
type Hypothesis int

const (
	Chronological Hypothesis = iota
	ChronologicalSwapped
	Reversed
	ReversedSwapped
)

var hypotheses = []Hypothesis{Chronological, ChronologicalSwapped, Reversed, ReversedSwapped}

func (h Hypothesis) String() string {
	switch h {
	case Chronological:
		return "chronological"
	case ChronologicalSwapped:
		return "chronological_swapped"
	case Reversed:
		return "reversed"
	case ReversedSwapped:
		return "reversed_swapped"
	default:
		return fmt.Sprintf("hypothesis(%d)", int(h))
	}
}

// MarshalText encodes the hypothesis by name.
func (h Hypothesis) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText decodes a hypothesis written by MarshalText.
func (h *Hypothesis) UnmarshalText(text []byte) error {
	for _, c := range hypotheses {
		if c.String() == string(text) {
			*h = c
			return nil
		}
	}
	return fmt.Errorf("ledger: unknown hypothesis %q", text)
}

// Swapped reports whether the hypothesis reads debit and credit reversed.
func (h Hypothesis) Swapped() bool {
	return h == ChronologicalSwapped || h == ReversedSwapped
}

func (h Hypothesis) reversed() bool {
	return h == Reversed || h == ReversedSwapped
}

// Verdict explains the outcome of a direction check.
type Verdict struct {
	// Insufficient is set when fewer than two rows carry a balance.
	Insufficient bool       `json:"insufficient"`
	BalanceRows  int        `json:"balanceRows"`
	Errors       [4]float64 `json:"errors"`
	Winner       Hypothesis `json:"winner"`
	// SwapRejected is set when the winner needed a swap but the best
	// unswapped reading was already close enough.
	SwapRejected bool `json:"swapRejected"`
	Swapped      bool `json:"swapped"`
}

// Validator detects debit/credit columns that were swapped during extraction
// using the running balance identity balance[i] = balance[i-1] + credit[i] - debit[i].
type Validator struct {
	SwapRejectionBias float64
}

// NewValidator returns a validator with the given bias; a negative bias
// selects the default.
func NewValidator(bias float64) *Validator {
	if bias < 0 {
		bias = DefaultSwapRejectionBias
	}
	return &Validator{SwapRejectionBias: bias}
}

// ValidateDirection checks txs with the default bias.
func ValidateDirection(txs []domain.Transaction, openingBalance float64) ([]domain.Transaction, Verdict) {
	return NewValidator(DefaultSwapRejectionBias).Validate(txs, openingBalance)
}

// Validate scores the four hypotheses over the balance-bearing rows of txs
// and, when a swapped reading wins decisively, returns a copy of the whole
// ledger with debit and credit exchanged on every row. Otherwise txs is
// returned as is.
func (v *Validator) Validate(txs []domain.Transaction, openingBalance float64) ([]domain.Transaction, Verdict) {
	var rows []domain.Transaction
	for _, tx := range txs {
		if tx.Balance != 0 {
			rows = append(rows, tx)
		}
	}

	verdict := Verdict{BalanceRows: len(rows)}
	if len(rows) < 2 {
		verdict.Insufficient = true
		return txs, verdict
	}

	for _, h := range hypotheses {
		verdict.Errors[h] = hypothesisError(rows, openingBalance, h)
	}

	verdict.Winner = Chronological
	for _, h := range hypotheses[1:] {
		if verdict.Errors[h] < verdict.Errors[verdict.Winner] {
			verdict.Winner = h
		}
	}

	if !verdict.Winner.Swapped() {
		return txs, verdict
	}

	bestUnswapped := math.Min(verdict.Errors[Chronological], verdict.Errors[Reversed])
	if bestUnswapped < v.SwapRejectionBias*float64(len(rows)) {
		verdict.SwapRejected = true
		return txs, verdict
	}

	out := make([]domain.Transaction, len(txs))
	for i, tx := range txs {
		tx.SwapDirection()
		out[i] = tx
	}
	verdict.Swapped = true
	return out, verdict
}

// hypothesisError sums the absolute gap between the observed balance change
// and the change implied by debit/credit under h.
func hypothesisError(rows []domain.Transaction, opening float64, h Hypothesis) float64 {
	implied := func(tx domain.Transaction) float64 {
		if h.Swapped() {
			return tx.Debit - tx.Credit
		}
		return tx.Credit - tx.Debit
	}

	var total float64
	for i := 1; i < len(rows); i++ {
		if h.reversed() {
			// Rows run newest first, so rows[i] happened before rows[i-1].
			total += math.Abs((rows[i-1].Balance - rows[i].Balance) - implied(rows[i-1]))
		} else {
			total += math.Abs((rows[i].Balance - rows[i-1].Balance) - implied(rows[i]))
		}
	}

	if opening != 0 {
		first := rows[0]
		if h.reversed() {
			first = rows[len(rows)-1]
		}
		total += math.Abs((first.Balance - opening) - implied(first))
	}
	return total
}
