package engine

import (
	"fmt"
)

// ============================================================================
// CUBE ALGEBRA — Roll-up, drill-down and pivot over fact views
// ============================================================================
// Slice, dice and cell detail live in filters.go: they return records.
// The operations here return aggregated Result Tables. None of them mutates
// its input or keeps state between calls.
// ============================================================================

// Rollup groups the view by dims (a coarser grain than the records) and
// reduces each group with aggs; the sum of sales when aggs is empty.
// The table only contains the dims it was asked for.
func (e *Engine) Rollup(view FactView, dims []Dimension, aggs ...Aggregate) (*ResultTable, error) {
	g, err := e.GroupBy(view, dims, aggs...)
	if err != nil {
		return nil, err
	}
	t := g.Table()
	t.Title = "Roll-up by " + e.joinLabels(dims)
	return t, nil
}

// RollupByYear sums sales and quantity per year.
func (e *Engine) RollupByYear(view FactView) *ResultTable {
	t, _ := e.Rollup(view, []Dimension{Year}, SumOf(Sales), SumOf(Quantity))
	return t
}

// RollupByYearQuarter sums sales and quantity per (year, quarter).
func (e *Engine) RollupByYearQuarter(view FactView) *ResultTable {
	t, _ := e.Rollup(view, []Dimension{Year, Quarter}, SumOf(Sales), SumOf(Quantity))
	return t
}

// Drilldown fixes product and region, then exposes the finest calendar grain
// beneath them: sales and quantity per (year, quarter, month), following the
// schema's calendar hierarchy.
func (e *Engine) Drilldown(view FactView, product, region string) *ResultTable {
	sub := applySets(view, map[Dimension]memberSet{
		Product: singleton(Product, product),
		Region:  singleton(Region, region),
	})
	g, _ := e.GroupBy(sub, e.cfg.calendar, SumOf(Sales), SumOf(Quantity))
	t := g.Table()
	t.Title = fmt.Sprintf("Drill-down %s %s / %s %s",
		e.cfg.dimensionLabel(Product), product, e.cfg.dimensionLabel(Region), region)
	return t
}

// PivotYearByRegion sums sales per (year, region) and reshapes the result so
// that years are rows and every region is a column.
func (e *Engine) PivotYearByRegion(view FactView) *ResultTable {
	g, _ := e.GroupBy(view, []Dimension{Year, Region}, SumOf(Sales))
	t, _ := g.Pivot(0) // two keys, one aggregate
	t.Title = "Pivot " + e.joinLabels([]Dimension{Year, Region})
	return t
}

// BuildMultiMeasurePivot sums sales and quantity per (product, region, year).
func (e *Engine) BuildMultiMeasurePivot(view FactView) *ResultTable {
	g, _ := e.GroupBy(view, []Dimension{Product, Region, Year}, SumOf(Sales), SumOf(Quantity))
	t := g.Table()
	t.Title = "Multi-measure pivot"
	return t
}

func (e *Engine) joinLabels(dims []Dimension) string {
	h := make(Header, len(dims))
	for i, d := range dims {
		h[i] = e.cfg.dimensionLabel(d)
	}
	return h.String()
}
