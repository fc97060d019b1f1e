package report

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/estimate-cli/internal/engine"
	"github.com/sells-group/estimate-cli/internal/model"
	"github.com/sells-group/estimate-cli/internal/segment"
)

func classifyFixture() *engine.ClassifyReport {
	return &engine.ClassifyReport{
		Year: 2025,
		Results: []engine.EstimateResult{
			{
				ExternalID: "E-1", AccountID: "A-1", Outcome: model.OutcomeWon,
				YearAttributions: []model.YearAttribution{
					{Year: 2024, Amount: decimal.NewFromInt(60000)},
					{Year: 2025, Amount: decimal.NewFromInt(60000)},
				},
			},
			{
				ExternalID: "E-2", Outcome: model.OutcomeLost,
				YearAttributions: []model.YearAttribution{},
				Excluded:         model.ReasonUnparseableDate,
			},
		},
		Outcomes: map[model.Outcome]int{model.OutcomeWon: 1, model.OutcomeLost: 1},
		Quality:  engine.DataQuality{UnparseableDate: 1, Deduplicated: 2},
	}
}

func atRiskFixture() *engine.AtRiskReport {
	return &engine.AtRiskReport{
		Today:         model.ParseDate("2026-01-15"),
		ThresholdDays: 180,
		AtRisk: []engine.AtRiskEstimate{
			{AccountID: "A-1", EstimateExternalID: "E-1", DaysUntilRenewal: 166, Department: "Maintenance", Address: "1 Main St", ContractEnd: model.ParseDate("2026-06-30")},
		},
		Accounts:   []string{"A-1"},
		Duplicates: []engine.DuplicateWarning{},
	}
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "$0.00"},
		{"999.5", "$999.50"},
		{"1000", "$1,000.00"},
		{"60000", "$60,000.00"},
		{"1234567.891", "$1,234,567.89"},
		{"-2500", "-$2,500.00"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatMoney(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatTable, f)

	f, err = ParseFormat(" XLSX ")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	_, err = ParseFormat("pdf")
	assert.Error(t, err)
}

func TestClassification_Tables(t *testing.T) {
	doc := Classification(classifyFixture())
	require.Len(t, doc.Tables, 3)

	est := doc.Tables[0]
	require.Len(t, est.Rows, 3)
	assert.Equal(t, []string{"E-1", "A-1", "won", "2024", "60000.00", "", ""}, est.Rows[0])
	assert.Equal(t, []string{"E-2", "", "lost", "", "", "", "unparseable_date"}, est.Rows[2])

	assert.Equal(t, [][]string{{"won", "1"}, {"lost", "1"}, {"pending", "0"}}, doc.Tables[1].Rows)
	assert.Equal(t, [][]string{{"deduplicated", "2"}, {"unparseable_date", "1"}}, doc.Tables[2].Rows)
}

func TestWrite_Table(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatTable, Classification(classifyFixture())))

	out := buf.String()
	assert.Contains(t, out, "ESTIMATES")
	assert.Contains(t, out, "EXTERNAL ID")
	assert.Contains(t, out, "$60,000.00")
	assert.Contains(t, out, "DATA QUALITY")
}

func TestWrite_TableEmpty(t *testing.T) {
	var buf bytes.Buffer
	r := atRiskFixture()
	r.AtRisk = nil
	require.NoError(t, Write(&buf, FormatTable, AtRisk(r)))
	assert.Contains(t, buf.String(), "(none)")
}

func TestWrite_CSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatCSV, AtRisk(atRiskFixture())))

	r := csv.NewReader(&buf)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"At Risk"}, records[0])
	assert.Equal(t, []string{"Account", "Estimate", "Days", "Contract End", "Department", "Address"}, records[1])
	assert.Equal(t, []string{"A-1", "E-1", "166", "2026-06-30", "Maintenance", "1 Main St"}, records[2])
	// Blank separator lines are skipped by the reader.
	assert.Equal(t, []string{"At Risk Accounts"}, records[3])
	assert.Equal(t, []string{"A-1"}, records[5])
	assert.Equal(t, []string{"Duplicates"}, records[6])
}

func TestWrite_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, Classification(classifyFixture())))

	out := buf.String()
	assert.Contains(t, out, `"external_id": "E-1"`)
	assert.Contains(t, out, `"amount": "60000"`)
	assert.Contains(t, out, `"unparseable_date": 1`)
}

func TestWrite_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatYAML, AtRisk(atRiskFixture())))

	out := buf.String()
	assert.Contains(t, out, "threshold_days: 180")
	assert.Contains(t, out, "estimate_external_id: E-1")
	assert.Contains(t, out, "days_until_renewal: 166")
}

func TestWrite_XLSX(t *testing.T) {
	seg := &engine.SegmentReport{
		Years:        []int{2025},
		TotalRevenue: decimal.NewFromInt(1000000),
		Segments: []engine.AccountSegment{
			{AccountID: "A-1", Year: 2025, Segment: model.SegmentA},
			{AccountID: "A-2", Year: 2025, Segment: model.SegmentB},
		},
		Summary:  &segment.Summary{Succeeded: 1, Failed: 1},
		Failures: map[string]string{"A-2": "account not found"},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatXLSX, Segments(seg)))

	f, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	require.Contains(t, f.Sheet, "Segments")

	rows := f.Sheet["Segments"].Rows
	require.Len(t, rows, 3)
	assert.Equal(t, "Account", rows[0].Cells[0].Value)
	assert.Equal(t, "A-2", rows[2].Cells[0].Value)
	year, err := rows[2].Cells[1].Int()
	require.NoError(t, err)
	assert.Equal(t, 2025, year)
	assert.Equal(t, "account not found", rows[2].Cells[3].Value)

	total, err := f.Sheet["Totals"].Rows[1].Cells[1].Float()
	require.NoError(t, err)
	assert.InDelta(t, 1000000.0, total, 0.001)
	assert.Equal(t, "$1.0M", f.Sheet["Totals"].Rows[1].Cells[2].Value)
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "risk.csv")
	require.NoError(t, WriteFile(path, FormatCSV, AtRisk(atRiskFixture())))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), "At Risk\n"))
}

func TestWriteFile_XLSXNeedsPath(t *testing.T) {
	err := WriteFile("", FormatXLSX, AtRisk(atRiskFixture()))
	assert.Error(t, err)
}

func TestFull_CombinesTables(t *testing.T) {
	doc := Full(&engine.FullReport{Classify: classifyFixture(), AtRisk: atRiskFixture()})
	names := make([]string, len(doc.Tables))
	for i, tbl := range doc.Tables {
		names[i] = tbl.Name
	}
	assert.Equal(t, []string{"Estimates", "Outcomes", "Data Quality", "At Risk", "At Risk Accounts", "Duplicates"}, names)
}
