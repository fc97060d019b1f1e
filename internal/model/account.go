package model

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Segment is an account's revenue-importance tier.
type Segment string

const (
	SegmentA Segment = "A"
	SegmentB Segment = "B"
	SegmentC Segment = "C"
	// SegmentD marks accounts whose won business for the year is standard
	// work with no service relationship.
	SegmentD Segment = "D"
)

// ParseSegment returns the segment for a letter, or "" when unknown.
func ParseSegment(s string) Segment {
	switch Segment(strings.ToUpper(strings.TrimSpace(s))) {
	case SegmentA:
		return SegmentA
	case SegmentB:
		return SegmentB
	case SegmentC:
		return SegmentC
	case SegmentD:
		return SegmentD
	default:
		return ""
	}
}

// AccountRecord is a customer account as supplied by the record store.
type AccountRecord struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	AnnualRevenue decimal.NullDecimal `json:"annual_revenue"`
	Archived      bool                `json:"archived"`
	SegmentByYear map[int]Segment     `json:"segment_by_year,omitempty"`
	SegmentLetter Segment             `json:"segment_letter,omitempty"`
	SnoozedUntil  Date                `json:"snoozed_until"`
}

// Revenue returns the externally supplied annual revenue, zero when missing.
func (a AccountRecord) Revenue() decimal.Decimal {
	if !a.AnnualRevenue.Valid {
		return decimal.Zero
	}
	return a.AnnualRevenue.Decimal
}

// SnoozedOn reports whether the account is snoozed on the given day.
func (a AccountRecord) SnoozedOn(day Date) bool {
	if !a.SnoozedUntil.Valid() || !day.Valid() {
		return false
	}
	return !day.After(a.SnoozedUntil)
}

// LatestSegment returns the segment of the most recent year in byYear.
func LatestSegment(byYear map[int]Segment) Segment {
	years := SortedYears(byYear)
	if len(years) == 0 {
		return ""
	}
	return byYear[years[len(years)-1]]
}

// SortedYears returns the keys of byYear in ascending order.
func SortedYears(byYear map[int]Segment) []int {
	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

func normalizeToken(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
