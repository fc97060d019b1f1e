package estimate

import (

	"github.com/shopspring/decimal"

	"github.com/sells-group/estimate-cli/internal/model"
)

// centPlaces is the precision of prorated annual amounts.
const centPlaces = 2

// MonthsBetween returns the contract length in months from start to end. A
// partial trailing month counts as a full month.
func MonthsBetween(start, end model.Date) int {
	s, e := start.Time(), end.Time()
	months := (e.Year()-s.Year())*12 + int(e.Month()) - int(s.Month())
	if e.Day() > s.Day() {
		months++
	}
	return months
}

// MonthsToYearCount maps a contract length in months to the number of
// calendar-year slots it is prorated over.
func MonthsToYearCount(months int) int {
	switch {
	case months <= 12:
		return 1
	case months <= 24:
		return 2
	case months <= 36:
		return 3
	case months%12 == 0:
		return months / 12
	default:
		return (months + 11) / 12
	}
}

// AllocateAll attributes rec's authoritative price to calendar years.
//
// Estimates with both contract dates are prorated evenly over the contract's
// year slots starting at the contract start year; the last slot absorbs any
// rounding remainder so the allocations always sum to the total. All other
// estimates attribute the full price to the year from ResolveYear, or to
// currentYear when undated.
func AllocateAll(rec model.EstimateRecord, currentYear int) model.Attribution {
	total := AuthoritativePrice(rec)

	if !rec.HasContractPeriod() {
		res := ResolveYear(rec)
		switch {
		case res.Reason != "":
			return model.Unattributed(res.Reason)
		case res.Undated:
			a := model.Attributed(model.YearAttribution{Year: currentYear, Amount: total})
			a.Undated = true
			return a
		default:
			return model.Attributed(model.YearAttribution{Year: res.Year, Amount: total})
		}
	}

	if !rec.ContractStart.Valid() {
		return model.Unattributed(model.ReasonUnresolvedStartYear)
	}
	if !rec.ContractEnd.Valid() {
		return model.Unattributed(model.ReasonUnparseableDate)
	}

	months := MonthsBetween(rec.ContractStart, rec.ContractEnd)
	if months <= 0 {
		return model.Unattributed(model.ReasonInvalidDuration)
	}

	years := MonthsToYearCount(months)
	annual := total.DivRound(decimal.NewFromInt(int64(years)), centPlaces)
	startYear := rec.ContractStart.Year()

	out := make([]model.YearAttribution, years)
	allocated := decimal.Zero
	for i := range years {
		amount := annual
		if i == years-1 {
			amount = total.Sub(allocated)
		}
		out[i] = model.YearAttribution{Year: startYear + i, Amount: amount}
		allocated = allocated.Add(amount)
	}

	a := model.Attributed(out...)
	a.MultiYear = true
	return a
}

// Allocate returns the amount of rec attributable to year.
func Allocate(rec model.EstimateRecord, year int) decimal.Decimal {
	return AllocateAll(rec, year).AmountFor(year)
}

// AppliesTo reports whether rec has value attributed to year.
func AppliesTo(rec model.EstimateRecord, year int) bool {
	return AllocateAll(rec, year).Covers(year)
}

var (
	billion  = decimal.NewFromInt(1_000_000_000)
	million  = decimal.NewFromInt(1_000_000)
	thousand = decimal.NewFromInt(1_000)
)

// FormatRevenue renders amount compactly: $1.5B, $2.5M, $60K or $12.50.
func FormatRevenue(amount decimal.Decimal) string {
	abs := amount.Abs()
	sign := ""
	if amount.IsNegative() {
		sign = "-"
	}
	switch {
	case abs.GreaterThanOrEqual(billion):
		return sign + "$" + abs.Div(billion).StringFixed(1) + "B"
	case abs.GreaterThanOrEqual(million):
		return sign + "$" + abs.Div(million).StringFixed(1) + "M"
	case abs.GreaterThanOrEqual(thousand):
		return sign + "$" + abs.Div(thousand).StringFixed(0) + "K"
	default:
		return sign + "$" + abs.StringFixed(centPlaces)
	}
}
