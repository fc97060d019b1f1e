package store

import (
	"encoding/json"
	"sort"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"github.com/sells-group/estimate-cli/internal/model"
)

// estimateRow is the text-typed shape both stores scan estimates into.
type estimateRow struct {
	ExternalID       string
	AccountID        string
	Status           string
	PipelineStatus   string
	PriceExTax       string
	PriceIncTax      string
	EstimateDate     string
	CloseDate        string
	ContractStart    string
	ContractEnd      string
	CreatedDate      string
	Division         string
	Address          string
	EstimateType     string
	ExcludeFromStats bool
	Archived         bool
}

func (r *estimateRow) dest() []any {
	return []any{
		&r.ExternalID, &r.AccountID, &r.Status, &r.PipelineStatus,
		&r.PriceExTax, &r.PriceIncTax,
		&r.EstimateDate, &r.CloseDate, &r.ContractStart, &r.ContractEnd, &r.CreatedDate,
		&r.Division, &r.Address, &r.EstimateType,
		&r.ExcludeFromStats, &r.Archived,
	}
}

func (r *estimateRow) record() (model.EstimateRecord, error) {
	exTax, err := parseMoney(r.PriceExTax)
	if err != nil {
		return model.EstimateRecord{}, eris.Wrapf(err, "estimate %s: price_ex_tax", r.ExternalID)
	}
	incTax, err := parseMoney(r.PriceIncTax)
	if err != nil {
		return model.EstimateRecord{}, eris.Wrapf(err, "estimate %s: price_inc_tax", r.ExternalID)
	}
	return model.EstimateRecord{
		ExternalID:         r.ExternalID,
		AccountID:          r.AccountID,
		StatusText:         r.Status,
		PipelineStatusText: r.PipelineStatus,
		PriceExTax:         exTax,
		PriceIncTax:        incTax,
		EstimateDate:       model.ParseDate(r.EstimateDate),
		CloseDate:          model.ParseDate(r.CloseDate),
		ContractStart:      model.ParseDate(r.ContractStart),
		ContractEnd:        model.ParseDate(r.ContractEnd),
		CreatedDate:        model.ParseDate(r.CreatedDate),
		Division:           r.Division,
		Address:            r.Address,
		EstimateType:       model.ParseEstimateType(r.EstimateType),
		ExcludeFromStats:   r.ExcludeFromStats,
		Archived:           r.Archived,
	}, nil
}

// accountRow is the text-typed shape both stores scan accounts into.
type accountRow struct {
	ID            string
	Name          string
	AnnualRevenue string
	Archived      bool
	SegmentByYear string
	SegmentLetter string
	SnoozedUntil  string
}

func (r *accountRow) dest() []any {
	return []any{
		&r.ID, &r.Name, &r.AnnualRevenue, &r.Archived,
		&r.SegmentByYear, &r.SegmentLetter, &r.SnoozedUntil,
	}
}

func (r *accountRow) record() (model.AccountRecord, error) {
	revenue, err := parseMoney(r.AnnualRevenue)
	if err != nil {
		return model.AccountRecord{}, eris.Wrapf(err, "account %s: annual_revenue", r.ID)
	}
	byYear, err := DecodeSegments(r.SegmentByYear)
	if err != nil {
		return model.AccountRecord{}, eris.Wrapf(err, "account %s: segment_by_year", r.ID)
	}
	return model.AccountRecord{
		ID:            r.ID,
		Name:          r.Name,
		AnnualRevenue: revenue,
		Archived:      r.Archived,
		SegmentByYear: byYear,
		SegmentLetter: model.ParseSegment(r.SegmentLetter),
		SnoozedUntil:  model.ParseDate(r.SnoozedUntil),
	}, nil
}

// parseMoney decodes a NUMERIC rendered as text. Blank means missing.
func parseMoney(s string) (decimal.NullDecimal, error) {
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, eris.Wrapf(err, "parse money %q", s)
	}
	return decimal.NewNullDecimal(d), nil
}

// moneyArg renders a NullDecimal for a NUMERIC or TEXT column.
func moneyArg(d decimal.NullDecimal) any {
	if !d.Valid {
		return nil
	}
	return d.Decimal.String()
}

// EncodeSegments renders a segment map as a JSON object keyed by year.
func EncodeSegments(byYear map[int]model.Segment) (string, error) {
	out := make(map[string]string, len(byYear))
	for y, s := range byYear {
		out[strconv.Itoa(y)] = string(s)
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", eris.Wrap(err, "encode segments")
	}
	return string(b), nil
}

// DecodeSegments parses a JSON object keyed by year. Unknown letters and
// non-numeric keys are dropped.
func DecodeSegments(s string) (map[int]model.Segment, error) {
	byYear := map[int]model.Segment{}
	if s == "" || s == "null" {
		return byYear, nil
	}
	var raw map[string]string
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return nil, eris.Wrap(err, "decode segments")
	}
	for k, v := range raw {
		y, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		if seg := model.ParseSegment(v); seg != "" {
			byYear[y] = seg
		}
	}
	return byYear, nil
}

// resultRows flattens estimate results for bulk writes. Results without an
// external id cannot be keyed and are skipped.
func resultRows(results []model.EstimateResult, now time.Time) ([][]any, int, error) {
	rows := make([][]any, 0, len(results))
	skipped := 0
	for _, r := range results {
		if r.ExternalID == "" {
			skipped++
			continue
		}
		years := append([]model.YearAttribution(nil), r.YearAttributions...)
		sort.Slice(years, func(i, j int) bool { return years[i].Year < years[j].Year })
		yearsJSON, err := json.Marshal(years)
		if err != nil {
			return nil, 0, eris.Wrapf(err, "marshal years for %s", r.ExternalID)
		}
		rows = append(rows, []any{
			r.ExternalID, r.AccountID, string(r.Outcome), string(yearsJSON),
			r.Undated, string(r.Excluded), now,
		})
	}
	return rows, skipped, nil
}

var resultColumns = []string{"external_id", "account_id", "outcome", "years", "undated", "excluded_reason", "computed_at"}
