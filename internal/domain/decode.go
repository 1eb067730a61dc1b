package domain

import (
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/shopspring/decimal"
)

// Keys under which the model wraps record arrays, normalized (lowercase, no separators).
var (
	transactionListKeys  = []string{"transactions", "rows", "items", "data", "entries"}
	invoiceListKeys      = []string{"invoices", "documents", "items", "data"}
	trialBalanceListKeys = []string{"entries", "trialbalance", "accounts", "rows", "items", "data"}
)

// Field aliases seen in model output, keyed by normalized name.
var (
	transactionAliases = map[string]string{
		"transactiondate": "date",
		"valuedate":       "date",
		"postingdate":     "date",
		"narration":       "description",
		"details":         "description",
		"particulars":     "description",
		"withdrawal":      "debit",
		"withdrawals":     "debit",
		"paidout":         "debit",
		"moneyout":        "debit",
		"deposit":         "credit",
		"deposits":        "credit",
		"paidin":          "credit",
		"moneyin":         "credit",
		"balanceafter":    "balance",
		"runningbalance":  "balance",
	}
	invoiceAliases = map[string]string{
		"invoicenumber": "invoiceid",
		"invoiceno":     "invoiceid",
		"suppliername":  "vendorname",
		"suppliertrn":   "vendortrn",
		"buyername":     "customername",
		"clientname":    "customername",
		"buyertrn":      "customertrn",
		"vatamount":     "totaltax",
		"grandtotal":    "totalamount",
		"items":         "lineitems",
	}
	lineItemAliases = map[string]string{
		"qty":       "quantity",
		"price":     "unitprice",
		"rate":      "unitprice",
		"vat":       "tax",
		"vatamount": "tax",
		"amount":    "total",
		"linetotal": "total",
	}
	trialBalanceAliases = map[string]string{
		"accountname": "account",
		"name":        "account",
		"particulars": "account",
		"description": "account",
		"dr":          "debit",
		"cr":          "credit",
	}
)

// DecodeTransactions converts a repaired model value into transactions.
// Elements that are not objects are skipped; a field that cannot be coerced
// keeps its zero value.
func DecodeTransactions(v any) []Transaction {
	var out []Transaction
	for _, rec := range records(v, transactionListKeys) {
		var tx Transaction
		decode(normalizeKeys(rec, transactionAliases), &tx)
		tx.Date = strings.TrimSpace(tx.Date)
		tx.Description = strings.TrimSpace(tx.Description)
		tx.Currency = strings.ToUpper(strings.TrimSpace(tx.Currency))
		out = append(out, tx)
	}
	return out
}

// DecodeInvoices converts a repaired model value into invoices.
func DecodeInvoices(v any) []Invoice {
	var out []Invoice
	for _, rec := range records(v, invoiceListKeys) {
		rec = normalizeKeys(rec, invoiceAliases)
		if items, ok := rec["lineitems"].([]any); ok {
			normalized := make([]any, 0, len(items))
			for _, item := range items {
				if m, ok := item.(map[string]any); ok {
					normalized = append(normalized, normalizeKeys(m, lineItemAliases))
				}
			}
			rec["lineitems"] = normalized
		}

		var inv Invoice
		decode(rec, &inv)
		inv.Currency = strings.ToUpper(strings.TrimSpace(inv.Currency))
		out = append(out, inv)
	}
	return out
}

// DecodeTrialBalance converts a repaired model value into trial balance entries.
func DecodeTrialBalance(v any) []TrialBalanceEntry {
	var out []TrialBalanceEntry
	for _, rec := range records(v, trialBalanceListKeys) {
		var e TrialBalanceEntry
		decode(normalizeKeys(rec, trialBalanceAliases), &e)
		e.Account = strings.TrimSpace(e.Account)
		out = append(out, e)
	}
	return out
}

// records finds the list of objects inside v: v itself when it is an array,
// the first array found under one of keys when it is an object, or the
// object itself when none of keys is present.
func records(v any, keys []string) []map[string]any {
	var list []any
	switch val := v.(type) {
	case []any:
		list = val
	case map[string]any:
		normalized := normalizeKeys(val, nil)
		found := false
		for _, k := range keys {
			inner, ok := normalized[k]
			if !ok {
				continue
			}
			found = true
			if arr, ok := inner.([]any); ok {
				list = arr
				break
			}
		}
		if !found {
			list = []any{val}
		}
	default:
		return nil
	}

	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// normalizeKeys lowercases keys, strips separators and applies aliases for
// keys whose canonical name is not already present.
func normalizeKeys(m map[string]any, aliases map[string]string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[normalizeKey(k)] = v
	}
	for from, to := range aliases {
		v, ok := out[from]
		if !ok {
			continue
		}
		if _, exists := out[to]; !exists {
			out[to] = v
		}
		delete(out, from)
	}
	return out
}

var keySeparators = strings.NewReplacer("_", "", "-", "", " ", "")

func normalizeKey(k string) string {
	return strings.ToLower(keySeparators.Replace(strings.TrimSpace(k)))
}

func decode(input map[string]any, out any) {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			amountHook,
			invoiceTypeHook,
		),
		WeaklyTypedInput: true,
		TagName:          "json",
		Result:           out,
	})
	if err != nil {
		return
	}
	// Decoding continues past bad fields; whatever could be read is kept.
	_ = dec.Decode(input)
}

func amountHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to.Kind() != reflect.Float64 {
		return data, nil
	}
	return ParseAmount(data.(string)), nil
}

func invoiceTypeHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != reflect.TypeOf(InvoiceType("")) {
		return data, nil
	}
	switch strings.ToLower(strings.TrimSpace(data.(string))) {
	case "sales", "sale", "sales invoice":
		return string(InvoiceSales), nil
	case "purchase", "purchases", "purchase invoice":
		return string(InvoicePurchase), nil
	default:
		return "", nil
	}
}

// ParseAmount reads a printed amount such as "1,234.50", "AED 12",
// "(50.00)" or "95%". Anything unreadable is 0.
func ParseAmount(s string) float64 {
	s = strings.TrimSpace(s)
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}

	d, err := decimal.NewFromString(b.String())
	if err != nil {
		return 0
	}
	if negative {
		d = d.Neg()
	}
	return d.InexactFloat64()
}
