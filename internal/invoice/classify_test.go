package invoice

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tech6-code/DocuFlow-AI-sub007/internal/domain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		company Company
		inv     domain.Invoice
		want    domain.InvoiceType
	}{
		{
			name:    "vendor trn means sales",
			company: Company{TRN: "100234567800003"},
			inv:     domain.Invoice{VendorTRN: "100234567800003", CustomerName: "Someone"},
			want:    domain.InvoiceSales,
		},
		{
			name:    "trn formatting ignored",
			company: Company{TRN: "100-2345-6780-0003"},
			inv:     domain.Invoice{VendorTRN: "TRN: 100234567800003"},
			want:    domain.InvoiceSales,
		},
		{
			name:    "customer trn means purchase",
			company: Company{TRN: "100234567800003"},
			inv:     domain.Invoice{VendorTRN: "300111222333444", CustomerTRN: "100234567800003"},
			want:    domain.InvoicePurchase,
		},
		{
			name:    "both trns match, sales first",
			company: Company{TRN: "100234567800003"},
			inv:     domain.Invoice{VendorTRN: "100234567800003", CustomerTRN: "100234567800003"},
			want:    domain.InvoiceSales,
		},
		{
			name:    "trn wins over name",
			company: Company{Name: "Acme Trading", TRN: "100234567800003"},
			inv:     domain.Invoice{VendorName: "Acme Trading", CustomerTRN: "100234567800003"},
			want:    domain.InvoicePurchase,
		},
		{
			name:    "customer name containment",
			company: Company{Name: "Acme Trading"},
			inv:     domain.Invoice{VendorName: "Global Supplies FZE", CustomerName: "Acme Trading LLC"},
			want:    domain.InvoicePurchase,
		},
		{
			name:    "vendor name checked before customer",
			company: Company{Name: "Acme Trading"},
			inv:     domain.Invoice{VendorName: "ACME TRADING L.L.C.", CustomerName: "Acme Trading"},
			want:    domain.InvoiceSales,
		},
		{
			name:    "token overlap",
			company: Company{Name: "Al Noor General Trading"},
			inv:     domain.Invoice{VendorName: "Supplier Co", CustomerName: "Noor Trading Est"},
			want:    domain.InvoicePurchase,
		},
		{
			name:    "token overlap below threshold",
			company: Company{Name: "Blue Sky Marine Services"},
			inv:     domain.Invoice{VendorName: "Red Sky Logistics", CustomerName: "Sky Marine Co", InvoiceType: domain.InvoiceSales},
			want:    domain.InvoiceSales,
		},
		{
			name:    "short company name skipped",
			company: Company{Name: "AB"},
			inv:     domain.Invoice{VendorName: "AB Holdings", InvoiceType: domain.InvoicePurchase},
			want:    domain.InvoicePurchase,
		},
		{
			name:    "no company keeps extracted type",
			company: Company{},
			inv:     domain.Invoice{VendorName: "Acme", InvoiceType: domain.InvoicePurchase},
			want:    domain.InvoicePurchase,
		},
		{
			name:    "no match leaves type empty",
			company: Company{Name: "Acme Trading"},
			inv:     domain.Invoice{VendorName: "Zeta", CustomerName: "Omega"},
			want:    "",
		},
		{
			name:    "empty invoice trn never matches",
			company: Company{TRN: "100234567800003"},
			inv:     domain.Invoice{VendorTRN: "", CustomerTRN: "N/A", InvoiceType: domain.InvoicePurchase},
			want:    domain.InvoicePurchase,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewClassifier(tt.company, 0).Classify(tt.inv)
			assert.Equal(t, tt.want, got.InvoiceType)
		})
	}
}

func TestTokenOverlap(t *testing.T) {
	assert.Equal(t, 1.0, TokenOverlap("Acme Trading", "Acme Trading LLC"))
	assert.InDelta(t, 2.0/3.0, TokenOverlap("Al Noor General Trading", "Noor Trading Est"), 1e-9)
	assert.Equal(t, 0.5, TokenOverlap("Blue Sky Marine Services", "Sky Marine Co"))
	assert.Equal(t, 0.0, TokenOverlap("AB", "AB Holdings"))
	assert.Equal(t, 1.0, TokenOverlap("tech", "Infotech Solutions"), "company tokens match inside longer tokens")
}

func TestClassifyAll_CustomThreshold(t *testing.T) {
	c := NewClassifier(Company{Name: "Blue Sky Marine Services"}, 0.5)
	got := c.ClassifyAll([]domain.Invoice{{CustomerName: "Sky Marine Co"}})
	assert.Equal(t, domain.InvoicePurchase, got[0].InvoiceType)
}
