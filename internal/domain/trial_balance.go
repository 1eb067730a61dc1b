package domain

// Category is a top-level accounting bucket.
type Category string

const (
	CategoryAssets      Category = "Assets"
	CategoryLiabilities Category = "Liabilities"
	CategoryEquity      Category = "Equity"
	CategoryIncome      Category = "Income"
	CategoryExpenses    Category = "Expenses"
)

// Categories lists the taxonomy in statement order.
var Categories = []Category{
	CategoryAssets,
	CategoryLiabilities,
	CategoryEquity,
	CategoryIncome,
	CategoryExpenses,
}

// Valid reports whether c is one of the taxonomy buckets.
func (c Category) Valid() bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}

// TrialBalanceEntry is one account line of a trial balance. An empty
// Category means the bucket has not been inferred yet.
type TrialBalanceEntry struct {
	Account  string   `json:"account"`
	Debit    float64  `json:"debit"`
	Credit   float64  `json:"credit"`
	Category Category `json:"category,omitempty"`
}
