// Package segment assigns accounts to revenue-importance tiers per year.
package segment

import (
	"github.com/shopspring/decimal"

	"github.com/sells-group/estimate-cli/internal/estimate"
	"github.com/sells-group/estimate-cli/internal/model"
)

var (
	hundred    = decimal.NewFromInt(100)
	thresholdA = decimal.NewFromInt(15)
	thresholdB = decimal.NewFromInt(5)
)

// Eligible returns the estimates that count toward an account's segment in
// year: won, not excluded or archived, and with value attributed to year.
func Eligible(estimates []model.EstimateRecord, year int) []model.EstimateRecord {
	var out []model.EstimateRecord
	for _, rec := range estimates {
		if !rec.Counted() {
			continue
		}
		if estimate.ClassifyRecord(rec) != model.OutcomeWon {
			continue
		}
		if !estimate.AppliesTo(rec, year) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// StandardOnly reports whether estimates contain standard work and no
// service work.
func StandardOnly(estimates []model.EstimateRecord) bool {
	var standard bool
	for _, rec := range estimates {
		switch rec.EstimateType {
		case model.EstimateTypeService:
			return false
		case model.EstimateTypeStandard:
			standard = true
		}
	}
	return standard
}

// Share returns the account's annual revenue as a percentage of total.
// ok is false when either figure is zero.
func Share(account model.AccountRecord, totalRevenue decimal.Decimal) (pct decimal.Decimal, ok bool) {
	revenue := account.Revenue()
	if revenue.IsZero() || totalRevenue.IsZero() {
		return decimal.Zero, false
	}
	return revenue.Div(totalRevenue).Mul(hundred), true
}

// ForShare maps a revenue percentage to a tier.
func ForShare(pct decimal.Decimal) model.Segment {
	switch {
	case pct.GreaterThanOrEqual(thresholdA):
		return model.SegmentA
	case pct.GreaterThanOrEqual(thresholdB):
		return model.SegmentB
	default:
		return model.SegmentC
	}
}

// Compute assigns account to a segment for year.
//
// D is checked first: standard-only won business for the year marks a
// maintenance relationship regardless of size. Otherwise the account's
// externally supplied annual revenue share of totalRevenue decides.
func Compute(account model.AccountRecord, estimates []model.EstimateRecord, totalRevenue decimal.Decimal, year int) model.Segment {
	if StandardOnly(Eligible(estimates, year)) {
		return model.SegmentD
	}
	pct, ok := Share(account, totalRevenue)
	if !ok {
		return model.SegmentC
	}
	return ForShare(pct)
}

// TotalRevenue sums annual revenue across non-archived accounts.
func TotalRevenue(accounts []model.AccountRecord) decimal.Decimal {
	total := decimal.Zero
	for _, a := range accounts {
		if a.Archived {
			continue
		}
		total = total.Add(a.Revenue())
	}
	return total
}
