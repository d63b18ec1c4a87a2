package engine

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ============================================================================
// CUBE — Cross-tabulated aggregate with margins
// ============================================================================
// Cells are keyed by a row tuple and a column tuple. Margins are ordinary
// cells whose tuples hold the All sentinel: every record contributes to each
// prefix level of both axes, so (A, Norte) × (2024, Q1) is a leaf,
// (A, All) × (2024, All) a product/year subtotal and (All, All) × (All, All)
// the grand total. Leaves and margins come out of the same reduction.
// ============================================================================

// CubeSpec assigns dimensions to the row and column axes.
type CubeSpec struct {
	Rows    []Dimension `json:"rows"`
	Cols    []Dimension `json:"cols"`
	Measure Measure     `json:"measure"`
}

// BaseCubeSpec is Product × Region rows, Year × Quarter columns, summing sales.
func BaseCubeSpec() CubeSpec {
	return CubeSpec{
		Rows:    []Dimension{Product, Region},
		Cols:    []Dimension{Year, Quarter},
		Measure: Sales,
	}
}

// Cube is a read-only aggregate over a fact view.
type Cube struct {
	Spec CubeSpec

	rowKeys []Tuple
	colKeys []Tuple
	cells   map[string]decimal.Decimal
	cfg     *config
}

// BuildBaseCube builds the cube described by BaseCubeSpec.
func (e *Engine) BuildBaseCube(view FactView) *Cube {
	c, _ := e.BuildCube(view, BaseCubeSpec()) // the base spec is always valid
	return c
}

// BuildCube aggregates the view into a cube with subtotals along every
// hierarchy level of both axes and a grand total.
func (e *Engine) BuildCube(view FactView, spec CubeSpec) (*Cube, error) {
	seen := make(map[Dimension]bool)
	for _, d := range append(append([]Dimension(nil), spec.Rows...), spec.Cols...) {
		if !d.Valid() {
			return nil, &DimensionError{Name: string(d)}
		}
		if seen[d] {
			return nil, fmt.Errorf("dimension %q is assigned to more than one axis position", d)
		}
		seen[d] = true
	}
	if !spec.Measure.Valid() {
		return nil, fmt.Errorf("%w: measure %q", ErrUnknownAggregate, spec.Measure)
	}

	rows, cols := spec.Rows, spec.Cols
	nr, nc := len(rows), len(cols)

	bs := e.reduce(view, []Aggregate{SumOf(spec.Measure)}, func(r Record, emit func(Tuple)) {
		full := make(Tuple, nr+nc)
		for i, d := range rows {
			full[i] = r.Member(d)
		}
		for j, d := range cols {
			full[nr+j] = r.Member(d)
		}

		key := make(Tuple, nr+nc)
		for rl := nr; rl >= 0; rl-- {
			for cl := nc; cl >= 0; cl-- {
				for i := 0; i < nr; i++ {
					if i < rl {
						key[i] = full[i]
					} else {
						key[i] = AllOf(rows[i])
					}
				}
				for j := 0; j < nc; j++ {
					if j < cl {
						key[nr+j] = full[nr+j]
					} else {
						key[nr+j] = AllOf(cols[j])
					}
				}
				emit(key)
			}
		}
	})

	c := &Cube{
		Spec:  CubeSpec{Rows: append([]Dimension(nil), rows...), Cols: append([]Dimension(nil), cols...), Measure: spec.Measure},
		cells: make(map[string]decimal.Decimal, len(bs)),
		cfg:   e.cfg,
	}

	rowSeen := make(map[string]bool)
	colSeen := make(map[string]bool)
	addRow := func(t Tuple) {
		if k := t.key(); !rowSeen[k] {
			rowSeen[k] = true
			c.rowKeys = append(c.rowKeys, t)
		}
	}
	addCol := func(t Tuple) {
		if k := t.key(); !colSeen[k] {
			colSeen[k] = true
			c.colKeys = append(c.colKeys, t)
		}
	}

	// The grand total exists even for an empty view.
	addRow(allTuple(rows))
	addCol(allTuple(cols))

	for _, b := range bs {
		row, col := b.key[:nr], b.key[nr:]
		addRow(row)
		addCol(col)
		c.cells[cellKey(row, col)] = b.accs[0].sum
	}
	e.cfg.sortTuples(c.rowKeys)
	e.cfg.sortTuples(c.colKeys)

	e.log.V(1).Info("built cube", "facts", view.Len(), "rows", len(c.rowKeys), "cols", len(c.colKeys), "cells", len(c.cells))
	return c, nil
}

func allTuple(dims []Dimension) Tuple {
	t := make(Tuple, len(dims))
	for i, d := range dims {
		t[i] = AllOf(d)
	}
	return t
}

func cellKey(row, col Tuple) string {
	return row.key() + "\x1e" + col.key()
}

// RowKeys returns the row tuples in display order, margins included.
func (c *Cube) RowKeys() []Tuple { return append([]Tuple(nil), c.rowKeys...) }

// ColKeys returns the column tuples in display order, margins included.
func (c *Cube) ColKeys() []Tuple { return append([]Tuple(nil), c.colKeys...) }

// Cell returns the aggregate at (row, col); combinations without facts are zero.
func (c *Cube) Cell(row, col Tuple) decimal.Decimal {
	if v, ok := c.cells[cellKey(row, col)]; ok {
		return v
	}
	return decimal.Zero
}

// GrandTotal returns the (All…, All…) cell.
func (c *Cube) GrandTotal() decimal.Decimal {
	return c.Cell(allTuple(c.Spec.Rows), allTuple(c.Spec.Cols))
}

// Table renders the full cube: one column per row dimension, then one column
// per column tuple with hierarchical headers such as ["2024", "Q1"].
func (c *Cube) Table() *ResultTable {
	return c.table(c.colKeys, 0)
}

// Face fixes the first column dimension to value and returns the remaining
// face of the cube, e.g. Face(2024) on the base cube gives every row by
// quarter of 2024 plus the 2024 subtotal. A value with no facts yields a
// table with the row columns only.
func (c *Cube) Face(value any) (*ResultTable, error) {
	if len(c.Spec.Cols) == 0 {
		return nil, fmt.Errorf("cube has no column dimensions to fix")
	}
	m, ok := MemberOf(c.Spec.Cols[0], value)
	var cols []Tuple
	if ok {
		for _, col := range c.colKeys {
			if col[0] == m {
				cols = append(cols, col)
			}
		}
	}
	t := c.table(cols, 1)
	t.Title = fmt.Sprintf("%s %v", c.cfg.dimensionLabel(c.Spec.Cols[0]), value)
	return t, nil
}

// table renders the cube restricted to cols, dropping the first drop column
// dimensions from the headers.
func (c *Cube) table(cols []Tuple, drop int) *ResultTable {
	headers := make([]Header, 0, len(c.Spec.Rows)+len(cols))
	for _, d := range c.Spec.Rows {
		headers = append(headers, Header{c.cfg.dimensionLabel(d)})
	}
	for _, col := range cols {
		h := Header(c.cfg.tupleLabels(col[drop:]))
		if len(h) == 0 {
			h = Header(c.cfg.tupleLabels(col))
		}
		if len(h) == 0 {
			// no column dimensions: the single column is the row total
			h = Header{c.cfg.Schema.Total()}
		}
		headers = append(headers, h)
	}

	rows := make([]Row, 0, len(c.rowKeys))
	for _, rk := range c.rowKeys {
		row := make(Row, 0, len(headers))
		row = append(row, c.cfg.tupleCells(rk)...)
		for _, col := range cols {
			row = append(row, c.Cell(rk, col))
		}
		rows = append(rows, row)
	}
	return &ResultTable{Title: "Cube", Headers: headers, Rows: rows}
}
