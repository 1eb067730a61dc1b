package ledger

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tech6-code/DocuFlow-AI-sub007/internal/domain"
)

func TestValidateDirection_SwappedColumnsCorrected(t *testing.T) {
	// True activity: 100 out (balance 900), then 50 in (balance 950).
	swapped := []domain.Transaction{
		{Date: "01/01/2023", Description: "Withdrawal", Debit: 0, Credit: 100, Balance: 900},
		{Date: "02/01/2023", Description: "Refund", Debit: 50, Credit: 0, Balance: 950},
	}

	got, verdict := ValidateDirection(swapped, 1000)

	require.True(t, verdict.Swapped)
	assert.Equal(t, ChronologicalSwapped, verdict.Winner)
	assert.Zero(t, verdict.Errors[ChronologicalSwapped])
	assert.Equal(t, 300.0, verdict.Errors[Chronological])
	assert.Equal(t, 100.0, got[0].Debit)
	assert.Equal(t, 0.0, got[0].Credit)
	assert.Equal(t, 0.0, got[1].Debit)
	assert.Equal(t, 50.0, got[1].Credit)

	// The caller's slice is left untouched.
	assert.Equal(t, 100.0, swapped[0].Credit)
}

func TestValidateDirection_CorrectColumnsUnchanged(t *testing.T) {
	txs := []domain.Transaction{
		{Date: "01/01/2023", Description: "Withdrawal", Debit: 100, Balance: 900},
		{Date: "02/01/2023", Description: "Refund", Credit: 50, Balance: 950},
	}

	got, verdict := ValidateDirection(txs, 1000)

	assert.False(t, verdict.Swapped)
	assert.Equal(t, Chronological, verdict.Winner)
	assert.Zero(t, verdict.Errors[Chronological])
	assert.Equal(t, txs, got)
}

func TestValidateDirection_SwapsRowsWithoutBalance(t *testing.T) {
	txs := []domain.Transaction{
		{Description: "a", Credit: 100, Balance: 900},
		{Description: "fee", Credit: 2},
		{Description: "b", Debit: 50, Balance: 948},
		{Description: "c", Credit: 30, Balance: 918},
	}

	got, verdict := ValidateDirection(txs, 1000)

	require.True(t, verdict.Swapped)
	assert.Equal(t, 3, verdict.BalanceRows)
	require.Len(t, got, 4)
	assert.Equal(t, 2.0, got[1].Debit, "every row is swapped, not only balance rows")
	assert.Equal(t, 0.0, got[1].Credit)
}

func TestValidateDirection_ReversedOrder(t *testing.T) {
	// Newest first: 1000 -> 900 (100 out) -> 950 (50 in), printed in reverse.
	txs := []domain.Transaction{
		{Description: "Refund", Credit: 50, Balance: 950},
		{Description: "Withdrawal", Debit: 100, Balance: 900},
	}

	got, verdict := ValidateDirection(txs, 1000)

	assert.Equal(t, Reversed, verdict.Winner)
	assert.Zero(t, verdict.Errors[Reversed])
	assert.False(t, verdict.Swapped)
	assert.Equal(t, txs, got)
}

func TestValidateDirection_InsufficientSignal(t *testing.T) {
	txs := []domain.Transaction{
		{Description: "a", Credit: 100, Balance: 900},
		{Description: "b", Debit: 50},
	}

	got, verdict := ValidateDirection(txs, 1000)

	assert.True(t, verdict.Insufficient)
	assert.Equal(t, 1, verdict.BalanceRows)
	assert.Equal(t, txs, got)

	_, verdict = ValidateDirection(nil, 0)
	assert.True(t, verdict.Insufficient)
}

func TestValidateDirection_SwapRejectedWhenUnswappedIsGoodEnough(t *testing.T) {
	// The swapped reading fits exactly, but the reversed reading fits too,
	// so the extracted columns are kept.
	txs := []domain.Transaction{
		{Description: "a", Debit: 0.5, Balance: 100},
		{Description: "b", Debit: 0.5, Balance: 100.5},
	}

	got, verdict := NewValidator(0.5).Validate(txs, 0)

	assert.Equal(t, ChronologicalSwapped, verdict.Winner)
	assert.True(t, verdict.SwapRejected)
	assert.False(t, verdict.Swapped)
	assert.Equal(t, txs, got)
}

func TestValidator_ZeroBiasAcceptsAnyWinningSwap(t *testing.T) {
	txs := []domain.Transaction{
		{Description: "a", Credit: 10, Balance: 90},
		{Description: "b", Credit: 10, Balance: 80},
		{Description: "c", Debit: 5, Balance: 85},
	}

	got, verdict := NewValidator(0).Validate(txs, 100)

	assert.True(t, verdict.Swapped)
	assert.Equal(t, 10.0, got[0].Debit)
	assert.Equal(t, 5.0, got[2].Credit)
}

func TestHypothesisString(t *testing.T) {
	assert.Equal(t, "reversed_swapped", ReversedSwapped.String())
	assert.True(t, ReversedSwapped.Swapped())
	assert.False(t, Reversed.Swapped())
}

func TestVerdict_JSON(t *testing.T) {
	data, err := json.Marshal(Verdict{Winner: ChronologicalSwapped, Swapped: true, BalanceRows: 3})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"winner":"chronological_swapped"`)
	assert.Contains(t, string(data), `"swapped":true`)
}

func TestVerdict_JSONRoundTrip(t *testing.T) {
	for _, h := range hypotheses {
		t.Run(h.String(), func(t *testing.T) {
			in := Verdict{Winner: h, Swapped: h.Swapped(), BalanceRows: 4, Errors: [4]float64{1, 2, 3, 4}}
			data, err := json.Marshal(in)
			require.NoError(t, err)

			var out Verdict
			require.NoError(t, json.Unmarshal(data, &out))
			assert.Equal(t, in, out)
		})
	}
}

func TestHypothesis_UnmarshalUnknown(t *testing.T) {
	var v Verdict
	err := json.Unmarshal([]byte(`{"winner":"sideways"}`), &v)
	assert.ErrorContains(t, err, `unknown hypothesis "sideways"`)
}
