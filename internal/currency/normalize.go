// Package currency resolves currency tokens printed on documents to ISO
// codes and converts amounts into the reporting currency.
package currency

import (
	"errors"
	"sort"
	"strings"
	"unicode"
)

// ErrUnresolvedCurrency is returned when a token cannot be mapped to an ISO code.
var ErrUnresolvedCurrency = errors.New("currency: unresolved currency")

// symbols maps printed symbols and words to ISO codes. Keys are uppercase.
var symbols = map[string]string{
	"$":        "USD",
	"US$":      "USD",
	"DOLLAR":   "USD",
	"DOLLARS":  "USD",
	"€":        "EUR",
	"EURO":     "EUR",
	"EUROS":    "EUR",
	"£":        "GBP",
	"POUND":    "GBP",
	"POUNDS":   "GBP",
	"STERLING": "GBP",
	"¥":        "JPY",
	"YEN":      "JPY",
	"₹":        "INR",
	"RUPEE":    "INR",
	"RUPEES":   "INR",
	"DHS":      "AED",
	"DH":       "AED",
	"DIRHAM":   "AED",
	"DIRHAMS":  "AED",
	"د.إ":      "AED",
	"دإ":       "AED",
	"RIYAL":    "SAR",
	"RIYALS":   "SAR",
	"﷼":        "SAR",
	"DINAR":    "KWD",
	"FRANC":    "CHF",
	"FRANCS":   "CHF",
	"YUAN":     "CNY",
	"RMB":      "CNY",
}

// symbolsByLength holds the table keys, longest first, for substring scans.
var symbolsByLength = func() []string {
	keys := make([]string, 0, len(symbols))
	for k := range symbols {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}()

// Normalize maps a printed currency token ("$", "Dirham", "aed", "US$ 12")
// to a three-letter code. It reports false when nothing resolves.
func Normalize(token string) (string, bool) {
	raw := strings.ToUpper(strings.TrimSpace(token))
	if raw == "" || raw == "N/A" || raw == "UNKNOWN" {
		return "", false
	}
	if code, ok := symbols[raw]; ok {
		return code, true
	}

	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) {
			return r
		}
		return -1
	}, raw)
	if code, ok := symbols[cleaned]; ok {
		return code, true
	}
	if isISOCode(cleaned) {
		return cleaned, true
	}

	for _, k := range symbolsByLength {
		if strings.Contains(raw, k) {
			return symbols[k], true
		}
	}
	return "", false
}

func isISOCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
