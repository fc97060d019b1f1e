package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx/v2"
	"gopkg.in/yaml.v3"
)

// moneyFormat is the XLSX number format for money cells.
const moneyFormat = "#,##0.00"

// Write renders doc to w in format.
func Write(w io.Writer, format Format, doc Document) error {
	switch format {
	case FormatTable, "":
		return writeTables(w, doc.Tables)
	case FormatCSV:
		return writeCSV(w, doc.Tables)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(doc.Data), "report: encode json")
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc.Data); err != nil {
			return eris.Wrap(err, "report: encode yaml")
		}
		return eris.Wrap(enc.Close(), "report: close yaml encoder")
	case FormatXLSX:
		return writeXLSX(w, doc.Tables)
	default:
		return eris.Errorf("report: unsupported format %q", format)
	}
}

// WriteFile renders doc to path, or to stdout when path is empty.
func WriteFile(path string, format Format, doc Document) error {
	if path == "" {
		if format == FormatXLSX {
			return eris.New("report: xlsx output requires --output")
		}
		return Write(os.Stdout, format, doc)
	}
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "report: create %s", path)
	}
	if err := Write(f, format, doc); err != nil {
		_ = f.Close()
		return err
	}
	return eris.Wrapf(f.Close(), "report: close %s", path)
}

func writeTables(out io.Writer, tables []Table) error {
	for i, t := range tables {
		if i > 0 {
			if _, err := fmt.Fprintln(out); err != nil {
				return eris.Wrap(err, "report: write table")
			}
		}
		if _, err := fmt.Fprintf(out, "%s\n", strings.ToUpper(t.Name)); err != nil {
			return eris.Wrap(err, "report: write table")
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		titles := make([]string, len(t.Columns))
		rules := make([]string, len(t.Columns))
		for j, c := range t.Columns {
			titles[j] = strings.ToUpper(c.Title)
			rules[j] = strings.Repeat("-", len(c.Title))
		}
		_, _ = fmt.Fprintln(w, strings.Join(titles, "\t"))
		_, _ = fmt.Fprintln(w, strings.Join(rules, "\t"))
		if len(t.Rows) == 0 {
			_, _ = fmt.Fprintln(w, "(none)")
		}
		for _, row := range t.Rows {
			cells := make([]string, len(row))
			for j, v := range row {
				cells[j] = v
				if j < len(t.Columns) && t.Columns[j].Kind == KindMoney {
					cells[j] = moneyCell(v)
				}
			}
			_, _ = fmt.Fprintln(w, strings.Join(cells, "\t"))
		}
		if err := w.Flush(); err != nil {
			return eris.Wrap(err, "report: flush table")
		}
	}
	return nil
}

// writeCSV writes each table as a header row followed by its rows. Multiple
// tables are separated by a blank record and prefixed with their name.
func writeCSV(w io.Writer, tables []Table) error {
	cw := csv.NewWriter(w)
	for i, t := range tables {
		if len(tables) > 1 {
			if i > 0 {
				if err := cw.Write([]string{""}); err != nil {
					return eris.Wrap(err, "report: write CSV separator")
				}
			}
			if err := cw.Write([]string{t.Name}); err != nil {
				return eris.Wrap(err, "report: write CSV table name")
			}
		}
		header := make([]string, len(t.Columns))
		for j, c := range t.Columns {
			header[j] = c.Title
		}
		if err := cw.Write(header); err != nil {
			return eris.Wrap(err, "report: write CSV header")
		}
		for _, row := range t.Rows {
			if err := cw.Write(row); err != nil {
				return eris.Wrap(err, "report: write CSV row")
			}
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "report: flush CSV")
}

// writeXLSX writes one sheet per table.
func writeXLSX(w io.Writer, tables []Table) error {
	f := xlsx.NewFile()
	for _, t := range tables {
		sheet, err := f.AddSheet(sheetName(t.Name))
		if err != nil {
			return eris.Wrapf(err, "report: add sheet %s", t.Name)
		}
		header := sheet.AddRow()
		for _, c := range t.Columns {
			header.AddCell().SetString(c.Title)
		}
		for _, values := range t.Rows {
			row := sheet.AddRow()
			for j, v := range values {
				kind := KindText
				if j < len(t.Columns) {
					kind = t.Columns[j].Kind
				}
				setCell(row.AddCell(), kind, v)
			}
		}
	}
	return eris.Wrap(f.Write(w), "report: write xlsx")
}

func setCell(cell *xlsx.Cell, kind Kind, raw string) {
	if raw == "" {
		cell.SetString("")
		return
	}
	switch kind {
	case KindMoney:
		if d, err := decimal.NewFromString(raw); err == nil {
			cell.SetFloatWithFormat(d.InexactFloat64(), moneyFormat)
			return
		}
	case KindInt:
		if n, err := strconv.Atoi(raw); err == nil {
			cell.SetInt(n)
			return
		}
	}
	cell.SetString(raw)
}

// sheetName trims a table name to the 31 characters XLSX allows.
func sheetName(name string) string {
	if len(name) > 31 {
		return name[:31]
	}
	return name
}
