package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"1,234.50", 1234.5},
		{"AED 12", 12},
		{"(50.00)", -50},
		{"-7.25", -7.25},
		{"95%", 95},
		{"$ 1,000", 1000},
		{"", 0},
		{"-", 0},
		{"N/A", 0},
		{"1.2.3", 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseAmount(tt.in))
		})
	}
}

func TestDecodeTransactions(t *testing.T) {
	raw := map[string]any{
		"transactions": []any{
			map[string]any{
				"date":        " 05/01/2024 ",
				"description": "POS CAFE ",
				"debit":       "1,250.00",
				"credit":      nil,
				"balance":     8750.0,
				"currency":    "aed",
				"confidence":  "92",
			},
			map[string]any{
				"Transaction Date": "06/01/2024",
				"narration":        "SALARY",
				"paid_in":          5000.0,
				"balance_after":    "13,750.00",
			},
			"not an object",
			map[string]any{"date": 20240107.0, "debit": true},
		},
	}

	txs := DecodeTransactions(raw)
	require.Len(t, txs, 3)

	assert.Equal(t, Transaction{
		Date:        "05/01/2024",
		Description: "POS CAFE",
		Debit:       1250,
		Balance:     8750,
		Currency:    "AED",
		Confidence:  92,
	}, txs[0])

	assert.Equal(t, "06/01/2024", txs[1].Date)
	assert.Equal(t, "SALARY", txs[1].Description)
	assert.Equal(t, 5000.0, txs[1].Credit)
	assert.Equal(t, 13750.0, txs[1].Balance)

	assert.Equal(t, "20240107", txs[2].Date)
	assert.Equal(t, 1.0, txs[2].Debit)
}

func TestDecodeTransactions_Shapes(t *testing.T) {
	assert.Len(t, DecodeTransactions([]any{map[string]any{"date": "x"}}), 1)
	assert.Len(t, DecodeTransactions(map[string]any{"date": "x"}), 1, "a lone object is one record")
	assert.Empty(t, DecodeTransactions(map[string]any{"transactions": nil}))
	assert.Empty(t, DecodeTransactions(nil))
	assert.Empty(t, DecodeTransactions("text"))
}

func TestDecodeInvoices(t *testing.T) {
	raw := []any{
		map[string]any{
			"invoice_number":   "INV-7",
			"supplier_name":    "Acme Trading LLC",
			"vendorTrn":        "100234567800003",
			"customer_name":    "Blue Sky FZE",
			"invoiceDate":      "12-Oct-2023",
			"currency":         "usd",
			"total_before_tax": "1,000.00",
			"vat_amount":       "50",
			"totalAmount":      1050.0,
			"invoiceType":      "Sales Invoice",
			"isVerified":       "true",
			"items": []any{
				map[string]any{"description": "Widget", "qty": "2", "price": "500", "vat": 50.0, "amount": "1,050"},
			},
		},
	}

	invs := DecodeInvoices(raw)
	require.Len(t, invs, 1)
	inv := invs[0]

	assert.Equal(t, "INV-7", inv.InvoiceID)
	assert.Equal(t, "Acme Trading LLC", inv.VendorName)
	assert.Equal(t, "100234567800003", inv.VendorTRN)
	assert.Equal(t, "Blue Sky FZE", inv.CustomerName)
	assert.Equal(t, "USD", inv.Currency)
	assert.Equal(t, 1000.0, inv.TotalBeforeTax)
	assert.Equal(t, 50.0, inv.TotalTax)
	assert.Equal(t, 1050.0, inv.TotalAmount)
	assert.Equal(t, InvoiceSales, inv.InvoiceType)
	assert.True(t, inv.IsVerified)
	require.Len(t, inv.LineItems, 1)
	assert.Equal(t, LineItem{Description: "Widget", Quantity: 2, UnitPrice: 500, Tax: 50, Total: 1050}, inv.LineItems[0])
}

func TestDecodeInvoices_UnknownTypeLeftEmpty(t *testing.T) {
	invs := DecodeInvoices(map[string]any{"invoices": []any{map[string]any{"invoiceType": "credit note"}}})
	require.Len(t, invs, 1)
	assert.Equal(t, InvoiceType(""), invs[0].InvoiceType)
}

func TestDecodeTrialBalance(t *testing.T) {
	raw := map[string]any{
		"trial_balance": []any{
			map[string]any{"account_name": " Cash at Bank ", "debit": "12,000", "credit": nil},
			map[string]any{"particulars": "Share Capital", "cr": 10000.0, "category": "Equity"},
		},
	}

	entries := DecodeTrialBalance(raw)
	require.Len(t, entries, 2)
	assert.Equal(t, TrialBalanceEntry{Account: "Cash at Bank", Debit: 12000}, entries[0])
	assert.Equal(t, TrialBalanceEntry{Account: "Share Capital", Credit: 10000, Category: CategoryEquity}, entries[1])
}

func TestTransactionSwapDirection(t *testing.T) {
	od, oc := 10.0, 0.0
	tx := Transaction{Debit: 5, Credit: 0, OriginalDebit: &od, OriginalCredit: &oc}
	tx.SwapDirection()

	assert.Equal(t, 0.0, tx.Debit)
	assert.Equal(t, 5.0, tx.Credit)
	assert.Equal(t, 0.0, *tx.OriginalDebit)
	assert.Equal(t, 10.0, *tx.OriginalCredit)
	assert.False(t, tx.Converted())
}

func TestCategoryValid(t *testing.T) {
	assert.True(t, CategoryIncome.Valid())
	assert.False(t, Category("Revenue").Valid())
	assert.False(t, Category("").Valid())
}
