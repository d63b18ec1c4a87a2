// Package render writes result tables as JSON, CSV or aligned text.
package render

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/spektr-org/olap/engine"
)

// Format selects an output encoding.
type Format string

const (
	JSON Format = "json"
	CSV  Format = "csv"
	Text Format = "text"
)

// ParseFormat accepts "json", "csv" or "text" (case-insensitive).
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case JSON, CSV, Text:
		return f, nil
	case "":
		return Text, nil
	}
	return "", fmt.Errorf("unknown output format %q (want json, csv or text)", s)
}

// Write shapes every table and writes them to w in order.
func Write(w io.Writer, f Format, tables ...*engine.ResultTable) error {
	switch f {
	case JSON:
		return WriteJSON(w, tables...)
	case CSV:
		return WriteCSV(w, tables...)
	case Text, "":
		return WriteText(w, tables...)
	}
	return fmt.Errorf("unknown output format %q", f)
}

// ============================================================================
// JSON OUTPUT
// ============================================================================

// WriteJSON writes one JSON document per table. Rows are objects keyed by
// the flattened headers, with keys kept in column order.
func WriteJSON(w io.Writer, tables ...*engine.ResultTable) error {
	for _, t := range tables {
		t = engine.Shape(t)
		names := t.HeaderNames()

		var buf bytes.Buffer
		buf.WriteString(`{"title":`)
		if err := writeJSONValue(&buf, t.Title); err != nil {
			return err
		}
		if t.Description != "" {
			buf.WriteString(`,"description":`)
			if err := writeJSONValue(&buf, t.Description); err != nil {
				return err
			}
		}
		buf.WriteString(`,"headers":`)
		if err := writeJSONValue(&buf, names); err != nil {
			return err
		}
		buf.WriteString(`,"rows":[`)
		for i, row := range t.Rows {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteByte('{')
			for j, name := range names {
				if j > 0 {
					buf.WriteByte(',')
				}
				if err := writeJSONValue(&buf, name); err != nil {
					return err
				}
				buf.WriteByte(':')
				if err := writeJSONValue(&buf, row[j]); err != nil {
					return err
				}
			}
			buf.WriteByte('}')
		}
		buf.WriteString("]}\n")

		if _, err := w.Write(buf.Bytes()); err != nil {
			return err
		}
	}
	return nil
}

func writeJSONValue(buf *bytes.Buffer, v any) error {
	// Decimals are emitted as JSON numbers, not quoted strings.
	if d, ok := v.(decimal.Decimal); ok {
		v = json.Number(d.String())
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	buf.Write(b)
	return nil
}

// ============================================================================
// CSV OUTPUT — Sheets-ready, one block per table
// ============================================================================

// WriteCSV writes each table as a header line plus rows. Multiple tables are
// separated by a blank line.
func WriteCSV(w io.Writer, tables ...*engine.ResultTable) error {
	cw := csv.NewWriter(w)
	for i, t := range tables {
		t = engine.Shape(t)
		if i > 0 {
			cw.Flush()
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if err := cw.Write(t.HeaderNames()); err != nil {
			return err
		}
		for _, row := range t.Rows {
			rec := make([]string, len(row))
			for j, v := range row {
				rec[j] = plain(v)
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// ============================================================================
// TEXT OUTPUT
// ============================================================================

// WriteText writes each table as an aligned block under its title.
// Numeric columns are right-aligned with grouped digits.
func WriteText(w io.Writer, tables ...*engine.ResultTable) error {
	for i, t := range tables {
		t = engine.Shape(t)
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if t.Title != "" {
			fmt.Fprintf(w, "== %s ==\n", t.Title)
		}
		if t.Description != "" {
			fmt.Fprintln(w, t.Description)
		}

		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(tw, strings.Join(t.HeaderNames(), "\t")+"\t")
		for _, row := range t.Rows {
			cells := make([]string, len(row))
			for j, v := range row {
				cells[j] = pretty(v)
			}
			fmt.Fprintln(tw, strings.Join(cells, "\t")+"\t")
		}
		if len(t.Rows) == 0 {
			fmt.Fprintln(tw, "(no rows)\t")
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}
