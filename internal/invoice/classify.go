// Package invoice decides whether an extracted invoice is a sale or a
// purchase for the reporting company and reconciles its totals.
package invoice

import (
	"regexp"
	"strings"

	"github.com/tech6-code/DocuFlow-AI-sub007/internal/domain"
)

// DefaultNameOverlapThreshold is the share of company name tokens that must
// be found in a counterparty name for the names to match.
const DefaultNameOverlapThreshold = 0.6

// minNameLength is the shortest normalized company name used for name matching.
const minNameLength = 3

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Company identifies the reporting company.
type Company struct {
	Name string
	TRN  string
}

// Classifier sets InvoiceType from counterparty matches against a company.
type Classifier struct {
	Company   Company
	Threshold float64
}

// NewClassifier creates a classifier. A non-positive threshold selects the default.
func NewClassifier(company Company, threshold float64) *Classifier {
	if threshold <= 0 {
		threshold = DefaultNameOverlapThreshold
	}
	return &Classifier{Company: company, Threshold: threshold}
}

// Classify returns inv with InvoiceType set when the company is recognised
// as vendor (sales) or customer (purchase). TRN matches take priority over
// name matches; with no match the existing type is kept.
func (c *Classifier) Classify(inv domain.Invoice) domain.Invoice {
	if t, ok := c.match(inv); ok {
		inv.InvoiceType = t
	}
	return inv
}

// ClassifyAll classifies every invoice.
func (c *Classifier) ClassifyAll(invs []domain.Invoice) []domain.Invoice {
	out := make([]domain.Invoice, len(invs))
	for i, inv := range invs {
		out[i] = c.Classify(inv)
	}
	return out
}

func (c *Classifier) match(inv domain.Invoice) (domain.InvoiceType, bool) {
	companyTRN := normalize(c.Company.TRN)
	companyName := normalize(c.Company.Name)
	if companyTRN == "" && companyName == "" {
		return "", false
	}

	if companyTRN != "" {
		if overlaps(companyTRN, normalize(inv.VendorTRN)) {
			return domain.InvoiceSales, true
		}
		if overlaps(companyTRN, normalize(inv.CustomerTRN)) {
			return domain.InvoicePurchase, true
		}
	}

	if len(companyName) < minNameLength {
		return "", false
	}
	if c.nameMatches(inv.VendorName) {
		return domain.InvoiceSales, true
	}
	if c.nameMatches(inv.CustomerName) {
		return domain.InvoicePurchase, true
	}
	return "", false
}

func (c *Classifier) nameMatches(counterparty string) bool {
	if overlaps(normalize(c.Company.Name), normalize(counterparty)) {
		return true
	}
	return TokenOverlap(c.Company.Name, counterparty) >= c.Threshold
}

// TokenOverlap is the fraction of company tokens longer than two characters
// that appear inside some token of counterparty.
func TokenOverlap(company, counterparty string) float64 {
	var companyTokens []string
	for _, t := range tokens(company) {
		if len(t) > 2 {
			companyTokens = append(companyTokens, t)
		}
	}
	if len(companyTokens) == 0 {
		return 0
	}
	other := tokens(counterparty)

	found := 0
	for _, ct := range companyTokens {
		for _, ot := range other {
			if strings.Contains(ot, ct) {
				found++
				break
			}
		}
	}
	return float64(found) / float64(len(companyTokens))
}

// overlaps reports whether two non-empty normalized values are equal or one
// contains the other.
func overlaps(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func normalize(s string) string {
	return nonAlnum.ReplaceAllString(strings.ToLower(s), "")
}

func tokens(s string) []string {
	var out []string
	for _, t := range nonAlnum.Split(strings.ToLower(s), -1) {
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
