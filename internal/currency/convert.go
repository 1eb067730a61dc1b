package currency

import (
	"context"
	"math"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/tech6-code/DocuFlow-AI-sub007/internal/domain"
)

// DefaultReportingCurrency is the currency every normalized amount ends up in.
const DefaultReportingCurrency = "AED"

// Converter resolves rates through a store and a provider and applies them
// to extracted records. Rate lookups never fail: anything that goes wrong
// resolves to an identity rate and a warning.
type Converter struct {
	store     RateStore
	provider  RateProvider
	reporting string
	log       zerolog.Logger
	group     singleflight.Group
}

// NewConverter creates a converter. A nil store gets an in-memory one; a nil
// provider makes every foreign rate resolve to 1.
func NewConverter(store RateStore, provider RateProvider, reporting string, log zerolog.Logger) *Converter {
	if store == nil {
		store = NewMemoryRateStore()
	}
	if reporting == "" {
		reporting = DefaultReportingCurrency
	}
	return &Converter{
		store:     store,
		provider:  provider,
		reporting: strings.ToUpper(reporting),
		log:       log,
	}
}

// ReportingCurrency returns the target currency code.
func (c *Converter) ReportingCurrency() string {
	return c.reporting
}

// Rate returns the multiplier converting from into to, or 1 when the pair is
// trivial or cannot be resolved.
func (c *Converter) Rate(ctx context.Context, from, to string) float64 {
	rate, _ := c.lookup(ctx, from, to)
	return rate
}

// lookup is Rate that also reports whether a real rate was found. Identity
// pairs count as found.
func (c *Converter) lookup(ctx context.Context, from, to string) (float64, bool) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	if from == "" || from == "N/A" || from == to {
		return 1, true
	}

	fromCode, ok := Normalize(from)
	if !ok {
		c.log.Warn().Str("from", from).Str("to", to).Err(ErrUnresolvedCurrency).Msg("Using identity rate")
		return 1, false
	}
	toCode, ok := Normalize(to)
	if !ok {
		c.log.Warn().Str("from", from).Str("to", to).Err(ErrUnresolvedCurrency).Msg("Using identity rate")
		return 1, false
	}
	if fromCode == toCode {
		return 1, true
	}

	key := RateKey(fromCode, toCode)
	if rate, hit, err := c.store.Get(ctx, key); err != nil {
		c.log.Warn().Err(err).Str("pair", key).Msg("Rate cache read failed")
	} else if hit {
		return rate, true
	}

	if c.provider == nil {
		c.log.Warn().Str("pair", key).Msg("No FX provider configured, using identity rate")
		return 1, false
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		rate, err := c.provider.Rate(ctx, fromCode, toCode)
		if err != nil {
			return 0.0, err
		}
		if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
			return 0.0, ErrUnresolvedCurrency
		}
		if err := c.store.Set(ctx, key, rate); err != nil {
			c.log.Warn().Err(err).Str("pair", key).Msg("Rate cache write failed")
		}
		return rate, nil
	})
	if err != nil {
		c.log.Warn().Err(err).Str("pair", key).Msg("FX lookup failed, using identity rate")
		return 1, false
	}
	return v.(float64), true
}

// Convert applies the from→to rate to amount and rounds to cents.
func (c *Converter) Convert(ctx context.Context, amount float64, from, to string) float64 {
	return Round2(amount * c.Rate(ctx, from, to))
}

// ConvertTransactions converts every row into the reporting currency. When
// the source currency is known and the rate is not 1, the pre-conversion
// values are kept in the Original* fields.
func (c *Converter) ConvertTransactions(ctx context.Context, txs []domain.Transaction) []domain.Transaction {
	out := make([]domain.Transaction, len(txs))
	for i, tx := range txs {
		out[i] = c.convertTransaction(ctx, tx)
	}
	return out
}

func (c *Converter) convertTransaction(ctx context.Context, tx domain.Transaction) domain.Transaction {
	code, known := Normalize(tx.Currency)
	if !known {
		if tx.Currency != "" && tx.Currency != domain.UnknownCurrency {
			c.log.Warn().Str("currency", tx.Currency).Msg("Unrecognised currency, keeping amounts")
		}
		tx.Currency = c.reporting
		return tx
	}

	rate := c.Rate(ctx, code, c.reporting)
	if rate != 1 {
		origCurrency := code
		origDebit, origCredit, origBalance := tx.Debit, tx.Credit, tx.Balance
		tx.OriginalCurrency = &origCurrency
		tx.OriginalDebit = &origDebit
		tx.OriginalCredit = &origCredit
		tx.OriginalBalance = &origBalance
	}
	tx.Debit = Round2(tx.Debit * rate)
	tx.Credit = Round2(tx.Credit * rate)
	tx.Balance = Round2(tx.Balance * rate)
	tx.Currency = c.reporting
	return tx
}

// ConvertInvoices fills the reporting-currency totals of each invoice. The
// invoice's own currency and native totals are left as extracted.
func (c *Converter) ConvertInvoices(ctx context.Context, invs []domain.Invoice) []domain.Invoice {
	out := make([]domain.Invoice, len(invs))
	for i, inv := range invs {
		out[i] = c.convertInvoice(ctx, inv)
	}
	return out
}

func (c *Converter) convertInvoice(ctx context.Context, inv domain.Invoice) domain.Invoice {
	code, known := Normalize(inv.Currency)
	if known {
		inv.Currency = code
	}

	rate, found := c.lookup(ctx, code, c.reporting)
	if !known || !found {
		// Keep reporting totals the model already produced rather than
		// overwriting them with unconverted values.
		if inv.TotalAmountAED != 0 {
			return inv
		}
		rate = 1
	}

	inv.TotalBeforeTaxAED = Round2(inv.TotalBeforeTax * rate)
	inv.TotalTaxAED = Round2(inv.TotalTax * rate)
	inv.ZeroRatedAED = Round2(inv.ZeroRated * rate)
	inv.TotalAmountAED = Round2(inv.TotalAmount * rate)
	return inv
}

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
