// Package report renders engine output as tables, CSV, JSON, YAML or XLSX.
package report

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
)

// Format is an output encoding.
type Format string

const (
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatXLSX  Format = "xlsx"
)

// Formats lists every supported format.
func Formats() []Format {
	return []Format{FormatTable, FormatCSV, FormatJSON, FormatYAML, FormatXLSX}
}

// ParseFormat returns the Format named by s. Blank input means table.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f == "" {
		return FormatTable, nil
	}
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", eris.Errorf("report: unsupported format %q", s)
}

// Kind controls how a column's raw values are rendered.
type Kind int

const (
	KindText Kind = iota
	KindMoney
	KindInt
)

// Column is a table column.
type Column struct {
	Title string
	Kind  Kind
}

// Table is a named grid of raw values. Money cells hold a decimal string and
// int cells a base-10 integer; renderers format them per output.
type Table struct {
	Name    string
	Columns []Column
	Rows    [][]string
}

// AddRow appends a row of raw values.
func (t *Table) AddRow(values ...string) {
	t.Rows = append(t.Rows, values)
}

// Document pairs the structured value used by JSON and YAML with its
// tabular form used by the other formats.
type Document struct {
	Data   any
	Tables []Table
}

// FormatMoney renders amount with two decimals and thousands separators,
// e.g. "$1,234,567.89".
func FormatMoney(amount decimal.Decimal) string {
	fixed := amount.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if amount.IsNegative() {
		b.WriteByte('-')
	}
	b.WriteByte('$')
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

// moneyCell renders a raw money value for text output. Blank stays blank.
func moneyCell(raw string) string {
	if raw == "" {
		return ""
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return raw
	}
	return FormatMoney(d)
}
