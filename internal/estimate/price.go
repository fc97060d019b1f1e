package estimate

import (
	"github.com/shopspring/decimal"

	"github.com/sells-group/estimate-cli/internal/model"
)

// AuthoritativePrice returns the single price used for every computation on
// rec: the tax-inclusive price when present and non-zero, else the
// tax-exclusive price, else zero. The two are never summed.
func AuthoritativePrice(rec model.EstimateRecord) decimal.Decimal {
	if rec.PriceIncTax.Valid && !rec.PriceIncTax.Decimal.IsZero() {
		return rec.PriceIncTax.Decimal
	}
	if rec.PriceExTax.Valid {
		return rec.PriceExTax.Decimal
	}
	return decimal.Zero
}
