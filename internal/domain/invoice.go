package domain

// InvoiceType is the role the reporting company plays on an invoice.
type InvoiceType string

const (
	// InvoiceSales is an invoice the company issued as vendor.
	InvoiceSales InvoiceType = "sales"
	// InvoicePurchase is an invoice the company received as customer.
	InvoicePurchase InvoiceType = "purchase"
)

// Invoice is a single extracted invoice. Totals are in the invoice currency;
// the *AED fields hold the same totals in the reporting currency.
type Invoice struct {
	InvoiceID    string `json:"invoiceId"`
	VendorName   string `json:"vendorName"`
	CustomerName string `json:"customerName"`
	VendorTRN    string `json:"vendorTrn,omitempty"`
	CustomerTRN  string `json:"customerTrn,omitempty"`
	InvoiceDate  string `json:"invoiceDate"`
	DueDate      string `json:"dueDate,omitempty"`
	Currency     string `json:"currency"`

	TotalBeforeTax float64 `json:"totalBeforeTax"`
	TotalTax       float64 `json:"totalTax"`
	ZeroRated      float64 `json:"zeroRated"`
	TotalAmount    float64 `json:"totalAmount"`

	TotalBeforeTaxAED float64 `json:"totalBeforeTaxAED"`
	TotalTaxAED       float64 `json:"totalTaxAED"`
	ZeroRatedAED      float64 `json:"zeroRatedAED"`
	TotalAmountAED    float64 `json:"totalAmountAED"`

	InvoiceType InvoiceType `json:"invoiceType,omitempty"`
	LineItems   []LineItem  `json:"lineItems"`
	Confidence  float64     `json:"confidence"`
	// IsVerified is set by a human reviewer and never changed by normalization.
	IsVerified bool   `json:"isVerified"`
	SourceFile string `json:"sourceFile,omitempty"`
}

// LineItem is one row of an invoice body.
type LineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	Subtotal    float64 `json:"subtotal"`
	Tax         float64 `json:"tax"`
	Total       float64 `json:"total"`
}
