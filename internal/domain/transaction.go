package domain

// UnknownCurrency marks a row whose currency could not be read from the document.
const UnknownCurrency = "UNKNOWN"

// Transaction is one bank statement row as extracted by the model and, after
// normalization, as handed to export and persistence.
// Debit and Credit are non-negative amounts in the row's currency; Balance is
// the running balance printed on the statement, 0 when absent.
type Transaction struct {
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Debit       float64 `json:"debit"`
	Credit      float64 `json:"credit"`
	Balance     float64 `json:"balance"`
	Currency    string  `json:"currency"`
	Confidence  float64 `json:"confidence"`

	// Populated together when the row was converted into the reporting currency.
	OriginalCurrency *string  `json:"originalCurrency,omitempty"`
	OriginalDebit    *float64 `json:"originalDebit,omitempty"`
	OriginalCredit   *float64 `json:"originalCredit,omitempty"`
	OriginalBalance  *float64 `json:"originalBalance,omitempty"`

	Category   string `json:"category,omitempty"`
	SourceFile string `json:"sourceFile,omitempty"`
}

// Converted reports whether the pre-conversion amounts were preserved.
func (t Transaction) Converted() bool {
	return t.OriginalCurrency != nil
}

// SwapDirection exchanges the debit and credit columns.
func (t *Transaction) SwapDirection() {
	t.Debit, t.Credit = t.Credit, t.Debit
	if t.OriginalDebit != nil || t.OriginalCredit != nil {
		t.OriginalDebit, t.OriginalCredit = t.OriginalCredit, t.OriginalDebit
	}
}
