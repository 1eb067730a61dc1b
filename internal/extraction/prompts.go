package extraction

import (
	"strconv"
	"strings"
)

// StatementPrompt builds the instruction for one bank statement page.
func StatementPrompt(page, pages int) string {
	var b strings.Builder
	b.WriteString("You are extracting transactions from a bank statement.\n")
	if pages > 1 {
		b.WriteString("This is page ")
		b.WriteString(strconv.Itoa(page))
		b.WriteString(" of ")
		b.WriteString(strconv.Itoa(pages))
		b.WriteString(". Only extract rows visible on this page.\n")
	}
	b.WriteString("\nReturn ONLY a JSON object of the form {\"transactions\": [...]} with one element per row:\n")
	b.WriteString("  date (as printed), description, debit, credit, balance, currency, confidence (0-100).\n\n")
	b.WriteString("RULES:\n")
	b.WriteString("1. Money leaving the account is debit, money entering is credit. Never put both on one row.\n")
	b.WriteString("2. Amounts are plain numbers without currency symbols or thousands separators. Use 0 when empty.\n")
	b.WriteString("3. If a description wraps onto the next line, emit the next line with empty date and zero amounts.\n")
	b.WriteString("4. Include opening/closing balance rows exactly as printed.\n")
	b.WriteString("5. currency is the ISO 4217 code of the account, or \"UNKNOWN\" if it cannot be determined.\n")
	b.WriteString("6. Do not invent rows. Do not wrap the JSON in markdown.\n")
	return b.String()
}

// InvoicePrompt builds the instruction for a batch of invoices. The company
// details are a hint for invoiceType; the classifier decides it afterwards.
func InvoicePrompt(companyName, companyTRN string) string {
	var b strings.Builder
	b.WriteString("You are extracting invoices. Each attached document may contain one or more invoices.\n")
	if companyName != "" || companyTRN != "" {
		b.WriteString("The reporting company is \"")
		b.WriteString(companyName)
		b.WriteString("\"")
		if companyTRN != "" {
			b.WriteString(" with TRN ")
			b.WriteString(companyTRN)
		}
		b.WriteString(".\n")
	}
	b.WriteString("\nReturn ONLY a JSON object of the form {\"invoices\": [...]} with fields:\n")
	b.WriteString("  invoiceId, vendorName, customerName, vendorTrn, customerTrn, invoiceDate, dueDate, currency,\n")
	b.WriteString("  totalBeforeTax, totalTax, zeroRated, totalAmount, invoiceType (\"sales\" or \"purchase\"),\n")
	b.WriteString("  confidence (0-100), lineItems: [{description, quantity, unitPrice, subtotal, tax, total}].\n\n")
	b.WriteString("RULES:\n")
	b.WriteString("1. TRN is the tax registration number printed for each party; use \"\" when absent.\n")
	b.WriteString("2. Amounts are plain numbers in the invoice currency. Use 0 when not printed.\n")
	b.WriteString("3. If the AED equivalent of the totals is printed, add totalBeforeTaxAED, totalTaxAED, zeroRatedAED, totalAmountAED.\n")
	b.WriteString("4. Do not wrap the JSON in markdown.\n")
	return b.String()
}

// TrialBalancePrompt builds the instruction for trial balance pages.
func TrialBalancePrompt() string {
	var b strings.Builder
	b.WriteString("You are extracting a trial balance.\n\n")
	b.WriteString("Return ONLY a JSON object of the form {\"entries\": [...]} with one element per printed row:\n")
	b.WriteString("  account, debit, credit, category.\n\n")
	b.WriteString("RULES:\n")
	b.WriteString("1. Keep section header rows (e.g. \"Assets\", \"Liabilities\") as rows with zero amounts.\n")
	b.WriteString("2. category is one of Assets, Liabilities, Equity, Income, Expenses, or \"\" if unsure.\n")
	b.WriteString("3. Amounts are plain numbers. Use 0 for an empty column.\n")
	b.WriteString("4. Do not wrap the JSON in markdown.\n")
	return b.String()
}
