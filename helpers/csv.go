package helpers

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/spektr-org/olap/engine"
	"github.com/spektr-org/olap/schema"
)

// ============================================================================
// CSV HELPER — Parses CSV data into []engine.Record
// ============================================================================
// Consumer reads the CSV from wherever it lives (file, pipe, export).
// Headers are resolved through the schema, so both "year,month,..." and the
// Spanish "Año,Mes,Trimestre,Producto,Región,Canal,Ventas,Cantidad" work.
// Validation of the quarter invariant is left to engine.Load.
// ============================================================================

// requiredColumns must all be present; quarter is optional and derived when absent.
var requiredColumns = []string{"year", "month", "product", "region", "channel", "sales", "quantity"}

// ParseFactsCSV parses CSV bytes into fact records using the schema to map headers.
func ParseFactsCSV(data []byte, sch schema.Config) ([]engine.Record, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.TrimLeadingSpace = true

	// Read header
	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}

	// Build column index → schema key mapping
	cols := make(map[string]int)
	for i, h := range headers {
		h = strings.TrimPrefix(h, "\ufeff")
		if d, ok := sch.Lookup(h); ok {
			cols[d.Key] = i
		} else if m, ok := sch.LookupMeasure(h); ok {
			cols[m.Key] = i
		}
		// Unmapped columns are silently skipped
	}
	var missing []string
	for _, key := range requiredColumns {
		if _, ok := cols[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("CSV is missing columns: %s", strings.Join(missing, ", "))
	}

	// Read rows
	var records []engine.Record
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		rec, err := parseRow(row, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}

	return records, nil
}

func parseRow(row []string, cols map[string]int) (engine.Record, error) {
	field := func(key string) string {
		i, ok := cols[key]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	atoi := func(key string) (int, error) {
		s := field(key)
		if key == "quarter" {
			s = strings.TrimPrefix(strings.TrimPrefix(s, "Q"), "q")
		}
		if s == "" && key == "quarter" {
			return 0, nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("column %s: %q is not an integer", key, field(key))
		}
		return n, nil
	}

	var (
		rec engine.Record
		err error
	)
	if rec.Year, err = atoi("year"); err != nil {
		return rec, err
	}
	if rec.Month, err = atoi("month"); err != nil {
		return rec, err
	}
	if rec.Quarter, err = atoi("quarter"); err != nil {
		return rec, err
	}
	rec.Product = field("product")
	rec.Region = field("region")
	rec.Channel = field("channel")

	if rec.Sales, err = decimal.NewFromString(field("sales")); err != nil {
		return rec, fmt.Errorf("column sales: %q is not a number", field("sales"))
	}
	qty, err := strconv.ParseInt(field("quantity"), 10, 64)
	if err != nil {
		return rec, fmt.Errorf("column quantity: %q is not an integer", field("quantity"))
	}
	rec.Quantity = qty
	return rec, nil
}

// WriteFactsCSV writes records with the canonical English header.
func WriteFactsCSV(w io.Writer, records []engine.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"year", "month", "quarter", "product", "region", "channel", "sales", "quantity"}); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write([]string{
			strconv.Itoa(r.Year),
			strconv.Itoa(r.Month),
			strconv.Itoa(r.Quarter),
			r.Product,
			r.Region,
			r.Channel,
			r.Sales.String(),
			strconv.FormatInt(r.Quantity, 10),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
