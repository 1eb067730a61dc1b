package extraction

import "google.golang.org/genai"

func str(desc string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Description: desc}
}

func num(desc string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeNumber, Description: desc}
}

func list(key string, item *genai.Schema) *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			key: {Type: genai.TypeArray, Items: item},
		},
		Required: []string{key},
	}
}

// StatementSchema is the output-shape hint for statement pages.
func StatementSchema() *genai.Schema {
	return list("transactions", &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"date":        str("Date as printed"),
			"description": str("Transaction narrative"),
			"debit":       num("Money out"),
			"credit":      num("Money in"),
			"balance":     num("Running balance"),
			"currency":    str("ISO 4217 code or UNKNOWN"),
			"confidence":  num("0-100"),
		},
		Required:         []string{"date", "description", "debit", "credit", "balance"},
		PropertyOrdering: []string{"date", "description", "debit", "credit", "balance", "currency", "confidence"},
	})
}

// InvoiceSchema is the output-shape hint for invoice batches.
func InvoiceSchema() *genai.Schema {
	lineItem := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"description": str(""),
			"quantity":    num(""),
			"unitPrice":   num(""),
			"subtotal":    num(""),
			"tax":         num(""),
			"total":       num(""),
		},
	}
	return list("invoices", &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"invoiceId":         str(""),
			"vendorName":        str(""),
			"customerName":      str(""),
			"vendorTrn":         str("Vendor tax registration number"),
			"customerTrn":       str("Customer tax registration number"),
			"invoiceDate":       str(""),
			"dueDate":           str(""),
			"currency":          str("ISO 4217 code"),
			"totalBeforeTax":    num(""),
			"totalTax":          num(""),
			"zeroRated":         num(""),
			"totalAmount":       num(""),
			"totalBeforeTaxAED": num(""),
			"totalTaxAED":       num(""),
			"zeroRatedAED":      num(""),
			"totalAmountAED":    num(""),
			"invoiceType":       {Type: genai.TypeString, Enum: []string{"sales", "purchase"}},
			"confidence":        num("0-100"),
			"lineItems":         {Type: genai.TypeArray, Items: lineItem},
		},
		Required: []string{"invoiceId", "vendorName", "customerName", "totalAmount"},
	})
}

// TrialBalanceSchema is the output-shape hint for trial balances.
func TrialBalanceSchema() *genai.Schema {
	return list("entries", &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"account":  str("Account name as printed"),
			"debit":    num(""),
			"credit":   num(""),
			"category": str("Assets, Liabilities, Equity, Income, Expenses or empty"),
		},
		Required:         []string{"account"},
		PropertyOrdering: []string{"account", "debit", "credit", "category"},
	})
}
