package estimate

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/estimate-cli/internal/model"
)

func contract(price int64, start, end string) model.EstimateRecord {
	return model.EstimateRecord{
		ExternalID:    "E",
		PriceIncTax:   money(price),
		ContractStart: model.ParseDate(start),
		ContractEnd:   model.ParseDate(end),
	}
}

func TestMonthsBetween(t *testing.T) {
	t.Parallel()

	tests := []struct {
		start, end string
		want       int
	}{
		{"2024-07-01", "2026-06-30", 24},
		{"2024-01-01", "2024-12-31", 12},
		{"2024-01-01", "2025-01-01", 12},
		{"2024-01-15", "2024-02-16", 2},
		{"2024-01-31", "2024-03-01", 2},
		{"2024-05-01", "2024-05-01", 0},
		{"2025-01-01", "2024-01-01", -12},
	}
	for _, tt := range tests {
		t.Run(tt.start+"_"+tt.end, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, MonthsBetween(model.ParseDate(tt.start), model.ParseDate(tt.end)))
		})
	}
}

func TestMonthsToYearCount(t *testing.T) {
	t.Parallel()

	tests := map[int]int{1: 1, 12: 1, 13: 2, 24: 2, 25: 3, 36: 3, 37: 4, 48: 4, 49: 5, 60: 5, 61: 6}
	for months, want := range tests {
		assert.Equal(t, want, MonthsToYearCount(months), "months=%d", months)
	}
}

func TestAllocateAll_EndToEndTwoYearContract(t *testing.T) {
	t.Parallel()

	rec := contract(120_000, "2024-07-01", "2026-06-30")
	a := AllocateAll(rec, 2025)

	require.False(t, a.Excluded())
	require.Len(t, a.Years, 2)
	assert.True(t, a.MultiYear)
	assert.Equal(t, 2024, a.Years[0].Year)
	assert.Equal(t, 2025, a.Years[1].Year)
	assert.True(t, decimal.NewFromInt(60_000).Equal(a.Years[0].Amount))
	assert.True(t, decimal.NewFromInt(60_000).Equal(a.Years[1].Amount))
	assert.False(t, a.Covers(2026))
	assert.True(t, Allocate(rec, 2026).IsZero())
}

func TestAllocateAll_Conservation(t *testing.T) {
	t.Parallel()

	cases := []model.EstimateRecord{
		contract(100, "2024-01-01", "2026-12-31"),
		contract(1_000_001, "2023-03-15", "2028-03-20"),
		contract(7, "2020-01-01", "2026-06-30"),
		{PriceExTax: decimal.NewNullDecimal(decimal.RequireFromString("99999.99")),
			ContractStart: model.ParseDate("2025-02-01"), ContractEnd: model.ParseDate("2027-11-30")},
	}
	for _, rec := range cases {
		a := AllocateAll(rec, 2025)
		require.False(t, a.Excluded())
		assert.True(t, AuthoritativePrice(rec).Equal(a.Total()),
			"sum %s != total %s", a.Total(), AuthoritativePrice(rec))
	}
}

func TestAllocateAll_ThreeYearsUneven(t *testing.T) {
	t.Parallel()

	a := AllocateAll(contract(100, "2024-01-01", "2026-12-31"), 2024)
	require.Len(t, a.Years, 3)
	assert.Equal(t, "33.33", a.Years[0].Amount.StringFixed(2))
	assert.Equal(t, "33.33", a.Years[1].Amount.StringFixed(2))
	assert.Equal(t, "33.34", a.Years[2].Amount.StringFixed(2))
}

func TestAllocateAll_InvalidDuration(t *testing.T) {
	t.Parallel()

	a := AllocateAll(contract(5000, "2025-06-01", "2025-06-01"), 2025)
	assert.Equal(t, model.ReasonInvalidDuration, a.Reason)
	assert.Empty(t, a.Years)

	a = AllocateAll(contract(5000, "2026-06-01", "2025-06-01"), 2025)
	assert.Equal(t, model.ReasonInvalidDuration, a.Reason)
}

func TestAllocateAll_UnresolvedStart(t *testing.T) {
	t.Parallel()

	a := AllocateAll(contract(5000, "someday", "2025-06-01"), 2025)
	assert.Equal(t, model.ReasonUnresolvedStartYear, a.Reason)

	a = AllocateAll(contract(5000, "2025-06-01", "later"), 2025)
	assert.Equal(t, model.ReasonUnparseableDate, a.Reason)
}

func TestAllocateAll_SingleYear(t *testing.T) {
	t.Parallel()

	rec := model.EstimateRecord{PriceIncTax: money(900), EstimateDate: model.ParseDate("2025-04-01")}
	assert.True(t, decimal.NewFromInt(900).Equal(Allocate(rec, 2025)))
	assert.True(t, Allocate(rec, 2024).IsZero())

	// Only one contract date: the single-year path applies.
	rec = model.EstimateRecord{PriceIncTax: money(900), ContractEnd: model.ParseDate("2026-02-01"), EstimateDate: model.ParseDate("2025-04-01")}
	a := AllocateAll(rec, 2025)
	assert.False(t, a.MultiYear)
	assert.True(t, a.Covers(2026))
	assert.False(t, a.Covers(2025))
}

func TestAllocateAll_UndatedAssumedCurrent(t *testing.T) {
	t.Parallel()

	rec := model.EstimateRecord{PriceExTax: money(250)}
	a := AllocateAll(rec, 2031)
	assert.True(t, a.Undated)
	assert.True(t, a.Covers(2031))
	assert.True(t, AppliesTo(rec, 1999))
}

func TestAllocateAll_UnparseableSingleYear(t *testing.T) {
	t.Parallel()

	rec := model.EstimateRecord{PriceExTax: money(250), CreatedDate: model.ParseDate("n/a")}
	a := AllocateAll(rec, 2025)
	assert.Equal(t, model.ReasonUnparseableDate, a.Reason)
	assert.False(t, AppliesTo(rec, 2025))
}

func TestFormatRevenue(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "$1.5B", FormatRevenue(decimal.NewFromInt(1_500_000_000)))
	assert.Equal(t, "$2.5M", FormatRevenue(decimal.NewFromInt(2_500_000)))
	assert.Equal(t, "$60K", FormatRevenue(decimal.NewFromInt(60_000)))
	assert.Equal(t, "$12.50", FormatRevenue(decimal.RequireFromString("12.5")))
	assert.Equal(t, "-$3.2M", FormatRevenue(decimal.NewFromInt(-3_200_000)))
}
