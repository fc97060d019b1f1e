package report

import (
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/sells-group/estimate-cli/internal/engine"
	"github.com/sells-group/estimate-cli/internal/estimate"
	"github.com/sells-group/estimate-cli/internal/model"
)

// Classification builds the document for a classification report.
func Classification(r *engine.ClassifyReport) Document {
	estimates := Table{
		Name: "Estimates",
		Columns: []Column{
			{Title: "External ID"},
			{Title: "Account"},
			{Title: "Outcome"},
			{Title: "Year", Kind: KindInt},
			{Title: "Amount", Kind: KindMoney},
			{Title: "Undated"},
			{Title: "Excluded"},
		},
	}
	for _, res := range r.Results {
		undated := yesNo(res.Undated)
		if len(res.YearAttributions) == 0 {
			estimates.AddRow(res.ExternalID, res.AccountID, string(res.Outcome), "", "", undated, string(res.Excluded))
			continue
		}
		for _, ya := range res.YearAttributions {
			estimates.AddRow(res.ExternalID, res.AccountID, string(res.Outcome),
				strconv.Itoa(ya.Year), ya.Amount.StringFixed(2), undated, string(res.Excluded))
		}
	}

	outcomes := Table{
		Name:    "Outcomes",
		Columns: []Column{{Title: "Outcome"}, {Title: "Count", Kind: KindInt}},
	}
	for _, o := range model.AllOutcomes() {
		outcomes.AddRow(string(o), strconv.Itoa(r.Outcomes[o]))
	}

	return Document{Data: r, Tables: []Table{estimates, outcomes, qualityTable(r.Quality)}}
}

func qualityTable(q engine.DataQuality) Table {
	t := Table{
		Name:    "Data Quality",
		Columns: []Column{{Title: "Issue"}, {Title: "Count", Kind: KindInt}},
	}
	counts := q.Map()
	for _, k := range slices.Sorted(maps.Keys(counts)) {
		t.AddRow(k, strconv.Itoa(counts[k]))
	}
	return t
}

// Segments builds the document for a segment report.
func Segments(r *engine.SegmentReport) Document {
	t := Table{
		Name: "Segments",
		Columns: []Column{
			{Title: "Account"},
			{Title: "Year", Kind: KindInt},
			{Title: "Segment"},
			{Title: "Error"},
		},
	}
	for _, s := range r.Segments {
		t.AddRow(s.AccountID, strconv.Itoa(s.Year), string(s.Segment), r.Failures[s.AccountID])
	}

	totals := Table{
		Name:    "Totals",
		Columns: []Column{{Title: "Metric"}, {Title: "Value", Kind: KindMoney}, {Title: "Compact"}},
	}
	totals.AddRow("Total revenue", r.TotalRevenue.StringFixed(2), estimate.FormatRevenue(r.TotalRevenue))

	tables := []Table{t, totals}
	if r.Summary != nil {
		tally := Table{
			Name:    "Tally",
			Columns: []Column{{Title: "Result"}, {Title: "Accounts", Kind: KindInt}},
		}
		tally.AddRow("succeeded", strconv.Itoa(r.Summary.Succeeded))
		tally.AddRow("failed", strconv.Itoa(r.Summary.Failed))
		tally.AddRow("skipped", strconv.Itoa(r.Summary.Skipped))
		tables = append(tables, tally)
	}
	return Document{Data: r, Tables: tables}
}

// AtRisk builds the document for an at-risk report.
func AtRisk(r *engine.AtRiskReport) Document {
	risk := Table{
		Name: "At Risk",
		Columns: []Column{
			{Title: "Account"},
			{Title: "Estimate"},
			{Title: "Days", Kind: KindInt},
			{Title: "Contract End"},
			{Title: "Department"},
			{Title: "Address"},
		},
	}
	for _, a := range r.AtRisk {
		risk.AddRow(a.AccountID, a.EstimateExternalID, strconv.Itoa(a.DaysUntilRenewal),
			a.ContractEnd.String(), a.Department, a.Address)
	}

	dups := Table{
		Name: "Duplicates",
		Columns: []Column{
			{Title: "Account"},
			{Title: "Department"},
			{Title: "Address"},
			{Title: "Estimates"},
		},
	}
	for _, d := range r.Duplicates {
		dups.AddRow(d.AccountID, d.Department, d.Address, strings.Join(d.EstimateExternalIDs, ", "))
	}
	accounts := Table{
		Name:    "At Risk Accounts",
		Columns: []Column{{Title: "Account"}},
	}
	for _, id := range r.Accounts {
		accounts.AddRow(id)
	}
	return Document{Data: r, Tables: []Table{risk, accounts, dups}}
}

// Full builds the document for a combined run.
func Full(r *engine.FullReport) Document {
	doc := Document{Data: r}
	if r.Classify != nil {
		doc.Tables = append(doc.Tables, Classification(r.Classify).Tables...)
	}
	if r.Segments != nil {
		doc.Tables = append(doc.Tables, Segments(r.Segments).Tables...)
	}
	if r.AtRisk != nil {
		doc.Tables = append(doc.Tables, AtRisk(r.AtRisk).Tables...)
	}
	return doc
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return ""
}
