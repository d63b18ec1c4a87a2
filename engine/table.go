package engine

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ============================================================================
// RESULT TABLE — Common output shape of every operation
// ============================================================================
// Headers may be hierarchical (["2024", "Q1"]); Shape flattens them into
// single display labels ("2024 / Q1") and fills missing cells with zero.
// Renderers consume shaped tables.
// ============================================================================

// HeaderSeparator joins the parts of a hierarchical header.
const HeaderSeparator = " / "

// Header is a column label, possibly hierarchical.
type Header []string

// String joins the non-empty parts with HeaderSeparator.
func (h Header) String() string {
	parts := make([]string, 0, len(h))
	for _, p := range h {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, HeaderSeparator)
}

// Row holds one value per header, in header order.
type Row []any

// ResultTable is a named table of headers and rows.
type ResultTable struct {
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Headers     []Header `json:"headers"`
	Rows        []Row    `json:"rows"`
}

// HeaderNames returns the flattened header labels.
func (t *ResultTable) HeaderNames() []string {
	names := make([]string, len(t.Headers))
	for i, h := range t.Headers {
		names[i] = h.String()
	}
	return names
}

// Column returns the index of the header whose flattened label is name, or -1.
func (t *ResultTable) Column(name string) int {
	for i, h := range t.Headers {
		if h.String() == name {
			return i
		}
	}
	return -1
}

// Get returns the value at row under header name.
func (t *ResultTable) Get(row int, name string) (any, bool) {
	col := t.Column(name)
	if col < 0 || row < 0 || row >= len(t.Rows) || col >= len(t.Rows[row]) {
		return nil, false
	}
	return t.Rows[row][col], true
}

// Decimal returns the value at row under header name as a decimal.
// Integers convert; anything else, or a missing cell, is zero.
func (t *ResultTable) Decimal(row int, name string) decimal.Decimal {
	v, _ := t.Get(row, name)
	switch x := v.(type) {
	case decimal.Decimal:
		return x
	case int:
		return decimal.NewFromInt(int64(x))
	case int64:
		return decimal.NewFromInt(x)
	}
	return decimal.Zero
}

// Records returns each row as a header → value mapping.
func (t *ResultTable) Records() []map[string]any {
	names := t.HeaderNames()
	out := make([]map[string]any, 0, len(t.Rows))
	for _, r := range t.Rows {
		rec := make(map[string]any, len(names))
		for i, n := range names {
			if i < len(r) {
				rec[n] = r[i]
			}
		}
		out = append(out, rec)
	}
	return out
}

// ============================================================================
// SHAPING
// ============================================================================

// Shape normalizes a table: hierarchical headers are flattened to single
// labels, missing or nil cells become zero, and row order is preserved.
// The input is not modified. Shape(Shape(t)) equals Shape(t).
func Shape(t *ResultTable) *ResultTable {
	if t == nil {
		return &ResultTable{Headers: []Header{}, Rows: []Row{}}
	}

	out := &ResultTable{
		Title:       t.Title,
		Description: t.Description,
		Headers:     make([]Header, len(t.Headers)),
		Rows:        make([]Row, len(t.Rows)),
	}
	for i, h := range t.Headers {
		out.Headers[i] = Header{h.String()}
	}
	for i, r := range t.Rows {
		row := make(Row, len(t.Headers))
		for j := range row {
			if j < len(r) && r[j] != nil {
				row[j] = r[j]
			} else {
				row[j] = decimal.Zero
			}
		}
		out.Rows[i] = row
	}
	return out
}

// ============================================================================
// LIST TABLE — Row per record
// ============================================================================

// ListTable renders unaggregated records (slice, dice, cell detail) with the
// fixed fact-table header set, also when the view is empty.
func (e *Engine) ListTable(view FactView) *ResultTable {
	dims := Dimensions()
	headers := make([]Header, 0, len(dims)+2)
	for _, d := range dims {
		headers = append(headers, Header{e.cfg.dimensionLabel(d)})
	}
	headers = append(headers,
		Header{e.cfg.Schema.Label(string(Sales))},
		Header{e.cfg.Schema.Label(string(Quantity))},
	)

	rows := make([]Row, 0, view.Len())
	for i := 0; i < view.Len(); i++ {
		r := view.Record(i)
		row := make(Row, 0, len(headers))
		for _, d := range dims {
			row = append(row, r.Member(d).Native())
		}
		row = append(row, r.Sales, r.Quantity)
		rows = append(rows, row)
	}
	return &ResultTable{Headers: headers, Rows: rows}
}
