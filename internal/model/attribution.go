package model

import "github.com/shopspring/decimal"

// ExclusionReason explains why an estimate contributes no revenue.
type ExclusionReason string

const (
	ReasonUnparseableDate     ExclusionReason = "unparseable_date"
	ReasonInvalidDuration     ExclusionReason = "invalid_duration"
	ReasonUnresolvedStartYear ExclusionReason = "unresolved_start_year"
	ReasonExcludedFromStats   ExclusionReason = "excluded_from_stats"
	ReasonArchived            ExclusionReason = "archived"
)

// YearAttribution is the share of an estimate's value assigned to one year.
type YearAttribution struct {
	Year   int             `json:"year" yaml:"year"`
	Amount decimal.Decimal `json:"amount" yaml:"amount"`
}

// YearResolution is the outcome of resolving a single-year estimate's date.
type YearResolution struct {
	Year int
	// Undated is set when no date field carried a value; the estimate then
	// applies to whichever year is being computed.
	Undated bool
	// Reason is set when a date was present but none could be used.
	Reason ExclusionReason
}

// Resolved reports whether a concrete year was found.
func (r YearResolution) Resolved() bool {
	return r.Year != 0
}

// AppliesTo reports whether the resolution matches the computed year.
func (r YearResolution) AppliesTo(year int) bool {
	if r.Reason != "" {
		return false
	}
	return r.Undated || r.Year == year
}

// Attribution is either a set of year allocations or an exclusion.
type Attribution struct {
	Years   []YearAttribution
	Undated bool
	Reason  ExclusionReason
	// MultiYear is set when the years came from contract proration.
	MultiYear bool
}

// Attributed builds an Attribution over the given years.
func Attributed(years ...YearAttribution) Attribution {
	return Attribution{Years: years}
}

// Unattributed builds an excluded Attribution.
func Unattributed(reason ExclusionReason) Attribution {
	return Attribution{Reason: reason}
}

// Excluded reports whether the estimate was excluded from revenue.
func (a Attribution) Excluded() bool {
	return a.Reason != ""
}

// AmountFor returns the amount attributed to year.
func (a Attribution) AmountFor(year int) decimal.Decimal {
	total := decimal.Zero
	for _, y := range a.Years {
		if y.Year == year {
			total = total.Add(y.Amount)
		}
	}
	return total
}

// Covers reports whether any allocation falls in year.
func (a Attribution) Covers(year int) bool {
	for _, y := range a.Years {
		if y.Year == year {
			return true
		}
	}
	return false
}

// Total sums every allocation.
func (a Attribution) Total() decimal.Decimal {
	total := decimal.Zero
	for _, y := range a.Years {
		total = total.Add(y.Amount)
	}
	return total
}
