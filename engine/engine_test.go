package engine

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/olap/schema"
)

// ── Test Data ─────────────────────────────────────────────────────────────────

func fact(year, month int, product, region string, sales, qty int64) Record {
	return Record{
		Year: year, Month: month, Quarter: QuarterOf(month),
		Product: product, Region: region, Channel: "Online",
		Sales: decimal.NewFromInt(sales), Quantity: qty,
	}
}

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := New(opts...)
	require.NoError(t, err)
	return e
}

func load(t *testing.T, e *Engine, records ...Record) *FactTable {
	t.Helper()
	ft, err := e.Load(records)
	require.NoError(t, err)
	return ft
}

func member(t *testing.T, d Dimension, v any) Member {
	t.Helper()
	m, ok := MemberOf(d, v)
	require.True(t, ok, "%v is not a member of %s", v, d)
	return m
}

func dec(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

// ============================================================================
// 1. CONCRETE SCENARIOS
// ============================================================================

func TestRollupByYearQuarterScenario(t *testing.T) {
	e := newTestEngine(t)
	ft := load(t, e,
		fact(2024, 1, "A", "Norte", 100, 5),
		fact(2024, 2, "A", "Norte", 50, 2),
		fact(2024, 4, "A", "Norte", 30, 1),
	)

	tbl := e.RollupByYearQuarter(ft)
	assert.Equal(t, []string{"Year", "Quarter", "Sales", "Quantity"}, tbl.HeaderNames())
	require.Len(t, tbl.Rows, 2)

	q, _ := tbl.Get(0, "Quarter")
	assert.Equal(t, 1, q)
	assert.True(t, tbl.Decimal(0, "Sales").Equal(dec(150)))
	assert.True(t, tbl.Decimal(0, "Quantity").Equal(dec(7)))

	q, _ = tbl.Get(1, "Quarter")
	assert.Equal(t, 2, q)
	assert.True(t, tbl.Decimal(1, "Sales").Equal(dec(30)))
	assert.True(t, tbl.Decimal(1, "Quantity").Equal(dec(1)))

	cube := e.BuildBaseCube(ft)
	row := Tuple{member(t, Product, "A"), member(t, Region, "Norte")}
	col := Tuple{member(t, Year, 2024), AllOf(Quarter)}
	assert.True(t, cube.Cell(row, col).Equal(dec(180)), "got %s", cube.Cell(row, col))
	assert.True(t, cube.GrandTotal().Equal(dec(180)))
}

func TestDiceScenario(t *testing.T) {
	e := newTestEngine(t)
	ft := load(t, e,
		fact(2023, 3, "A", "Norte", 20, 1),
		fact(2024, 3, "A", "Sur", 10, 1),
	)

	view, err := e.Dice(ft, Predicates{
		Year:   {2024},
		Region: {"Norte", "Sur"},
	})
	require.NoError(t, err)
	require.Equal(t, 1, view.Len())
	assert.Equal(t, 2024, view.Record(0).Year)
	assert.Equal(t, "Sur", view.Record(0).Region)
}

func TestSliceAbsentValue(t *testing.T) {
	e := newTestEngine(t)
	ft := load(t, e, fact(2024, 1, "A", "Norte", 100, 5))

	view, err := e.Slice(ft, Year, 2025)
	require.NoError(t, err)
	assert.Equal(t, 0, view.Len())

	tbl := e.ListTable(view)
	assert.Empty(t, tbl.Rows)
	assert.Equal(t,
		[]string{"Year", "Month", "Quarter", "Product", "Region", "Channel", "Sales", "Quantity"},
		tbl.HeaderNames())
}

// ============================================================================
// 2. FACT TABLE VALIDATION
// ============================================================================

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name  string
		rec   Record
		field string
	}{
		{"month zero", Record{Year: 2024, Month: 0, Sales: dec(1)}, "month"},
		{"month thirteen", Record{Year: 2024, Month: 13, Sales: dec(1)}, "month"},
		{"negative sales", Record{Year: 2024, Month: 1, Sales: dec(-1)}, "sales"},
		{"negative quantity", Record{Year: 2024, Month: 1, Sales: dec(1), Quantity: -2}, "quantity"},
		{"quarter mismatch", Record{Year: 2024, Month: 5, Quarter: 1, Sales: dec(1)}, "quarter"},
	}
	e := newTestEngine(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Load([]Record{fact(2024, 1, "A", "Norte", 1, 1), tt.rec})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidRecord))

			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, 1, ve.Index)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestLoadDerivesAndNormalizesQuarter(t *testing.T) {
	e := newTestEngine(t)
	ft := load(t, e, Record{Year: 2024, Month: 11, Product: "A", Region: "Sur", Sales: dec(5)})
	assert.Equal(t, 4, ft.Record(0).Quarter)

	norm := newTestEngine(t, WithValidation(ValidationNormalize))
	ft = load(t, norm, Record{Year: 2024, Month: 5, Quarter: 1, Product: "A", Region: "Sur", Sales: dec(5)})
	assert.Equal(t, 2, ft.Record(0).Quarter)
}

func TestLoadCopiesInput(t *testing.T) {
	e := newTestEngine(t)
	in := []Record{fact(2024, 1, "A", "Norte", 100, 5)}
	ft := load(t, e, in...)

	in[0].Product = "Z"
	assert.Equal(t, "A", ft.Record(0).Product)
}

func TestQuarterOf(t *testing.T) {
	want := []int{1, 1, 1, 2, 2, 2, 3, 3, 3, 4, 4, 4}
	for m := 1; m <= 12; m++ {
		assert.Equal(t, want[m-1], QuarterOf(m), "month %d", m)
	}
}

// ============================================================================
// 3. DIMENSIONS
// ============================================================================

func TestParseDimension(t *testing.T) {
	e := newTestEngine(t)
	for name, want := range map[string]Dimension{
		"year":    Year,
		"Año":     Year,
		"región":  Region,
		"Product": Product,
		"CANAL":   Channel,
		"mes":     Month,
	} {
		d, err := e.ParseDimension(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, d, name)
	}

	_, err := e.ParseDimension("colour")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownDimension))
	var de *DimensionError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "colour", de.Name)
}

func TestMemberOf(t *testing.T) {
	m, ok := MemberOf(Quarter, "Q3")
	require.True(t, ok)
	assert.Equal(t, 3, m.Native())

	m, ok = MemberOf(Year, "2024")
	require.True(t, ok)
	assert.Equal(t, 2024, m.Native())

	_, ok = MemberOf(Year, "twenty")
	assert.False(t, ok)

	assert.Nil(t, AllOf(Region).Native())
}

func TestMemberOfDecodedNumbers(t *testing.T) {
	tests := []struct {
		name string
		dim  Dimension
		in   any
		want int
	}{
		{"float64 year", Year, float64(2024), 2024},
		{"float32 quarter", Quarter, float32(3), 3},
		{"uint64 year", Year, uint64(2024), 2024},
		{"uint month", Month, uint(7), 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := MemberOf(tt.dim, tt.in)
			require.True(t, ok)
			assert.Equal(t, tt.want, m.Native())
		})
	}

	_, ok := MemberOf(Year, 2024.5)
	assert.False(t, ok, "fractional years are never members")
	_, ok = MemberOf(Year, uint64(1)<<63)
	assert.False(t, ok, "out of int64 range")
}

func TestSliceAcceptsDecodedNumbers(t *testing.T) {
	e := newTestEngine(t)
	ft := load(t, e,
		fact(2023, 1, "A", "Norte", 10, 1),
		fact(2024, 5, "B", "Sur", 20, 2),
	)

	for _, v := range []any{float64(2024), uint64(2024), float32(2024)} {
		view, err := e.Slice(ft, Year, v)
		require.NoError(t, err)
		assert.Equal(t, 1, view.Len(), "%T", v)
	}

	view, err := e.Dice(ft, Predicates{Quarter: {float64(2)}, Year: {uint64(2024)}})
	require.NoError(t, err)
	require.Equal(t, 1, view.Len())
	assert.Equal(t, "B", view.Record(0).Product)
}

func TestCatalogOrderFollowsSchema(t *testing.T) {
	records := []Record{
		fact(2024, 10, "A", "Norte", 1, 1),
		fact(2024, 9, "A", "Norte", 1, 1),
		fact(2024, 11, "A", "Norte", 1, 1),
	}

	e := newTestEngine(t)
	months, err := e.Catalog(load(t, e, records...), Month)
	require.NoError(t, err)
	assert.Equal(t, []string{"9", "10", "11"}, values(months))

	sch := schema.Sales()
	dimensionMeta(sch, "month").IsNumeric = false
	lexical := newTestEngine(t, WithSchema(sch))
	months, err = lexical.Catalog(load(t, lexical, records...), Month)
	require.NoError(t, err)
	assert.Equal(t, []string{"10", "11", "9"}, values(months))
}

// dimensionMeta returns a pointer into sch for in-place edits.
func dimensionMeta(sch schema.Config, key string) *schema.DimensionMeta {
	for i := range sch.Dimensions {
		if sch.Dimensions[i].Key == key {
			return &sch.Dimensions[i]
		}
	}
	panic("no dimension " + key)
}

func TestCatalogOrder(t *testing.T) {
	e := newTestEngine(t)
	ft := load(t, e,
		fact(2025, 1, "D", "Sur", 1, 1),
		fact(2023, 1, "B", "Este", 1, 1),
		fact(2024, 1, "A", "Norte", 1, 1),
		fact(2024, 1, "C", "Oeste", 1, 1),
	)

	products, err := e.Catalog(ft, Product)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C", "D"}, values(products))

	regions, err := e.Catalog(ft, Region)
	require.NoError(t, err)
	assert.Equal(t, []string{"Este", "Norte", "Oeste", "Sur"}, values(regions))

	years, err := e.Catalog(ft, Year)
	require.NoError(t, err)
	assert.Equal(t, []string{"2023", "2024", "2025"}, values(years))

	_, err = e.Catalog(ft, Dimension("colour"))
	assert.ErrorIs(t, err, ErrUnknownDimension)
}

func values(ms []Member) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.Value
	}
	return out
}

// ============================================================================
// 4. FILTERS
// ============================================================================

func TestDiceEdgeCases(t *testing.T) {
	e := newTestEngine(t)
	ft := load(t, e,
		fact(2024, 1, "A", "Norte", 1, 1),
		fact(2024, 2, "B", "Sur", 1, 1),
	)

	view, err := e.Dice(ft, Predicates{})
	require.NoError(t, err)
	assert.Equal(t, 2, view.Len(), "no predicates keeps every record")

	view, err = e.Dice(ft, Predicates{Region: {}})
	require.NoError(t, err)
	assert.Equal(t, 0, view.Len(), "an empty set matches nothing")

	view, err = e.Dice(ft, Predicates{Region: {"Atlantis"}})
	require.NoError(t, err)
	assert.Equal(t, 0, view.Len())

	_, err = e.Dice(ft, Predicates{Dimension("colour"): {"red"}})
	assert.ErrorIs(t, err, ErrUnknownDimension)
}

func TestCellDetail(t *testing.T) {
	e := newTestEngine(t)
	ft := load(t, e,
		fact(2024, 1, "A", "Norte", 100, 5),
		fact(2024, 2, "A", "Norte", 50, 2),
		fact(2024, 4, "A", "Norte", 30, 1),
		fact(2024, 1, "B", "Norte", 70, 3),
	)
	view := e.CellDetail(ft, 2024, 1, "A", "Norte")
	require.Equal(t, 2, view.Len())

	total := decimal.Zero
	for _, r := range Records(view) {
		total = total.Add(r.Sales)
	}
	cube := e.BuildBaseCube(ft)
	row := Tuple{member(t, Product, "A"), member(t, Region, "Norte")}
	col := Tuple{member(t, Year, 2024), member(t, Quarter, 1)}
	assert.True(t, total.Equal(cube.Cell(row, col)))
}

// ============================================================================
// 5. GROUPING & PIVOT
// ============================================================================

func TestGroupByReducers(t *testing.T) {
	e := newTestEngine(t)
	ft := load(t, e,
		fact(2024, 1, "A", "Norte", 100, 5),
		fact(2024, 2, "A", "Norte", 50, 2),
		fact(2024, 4, "A", "Norte", 30, 1),
	)

	g, err := e.GroupBy(ft, []Dimension{Quarter},
		Aggregate{Sales, Avg}, Aggregate{Sales, Min}, Aggregate{Sales, Max}, Aggregate{Sales, Count})
	require.NoError(t, err)

	tbl := g.Table()
	assert.Equal(t, []string{"Quarter", "Avg Sales", "Min Sales", "Max Sales", "Count"}, tbl.HeaderNames())
	require.Len(t, tbl.Rows, 2)
	assert.True(t, tbl.Decimal(0, "Avg Sales").Equal(dec(75)))
	assert.True(t, tbl.Decimal(0, "Min Sales").Equal(dec(50)))
	assert.True(t, tbl.Decimal(0, "Max Sales").Equal(dec(100)))
	assert.True(t, tbl.Decimal(0, "Count").Equal(dec(2)))

	grp, ok := g.Lookup(Tuple{member(t, Quarter, 2)})
	require.True(t, ok)
	assert.Equal(t, 1, grp.Count)
}

func TestGroupByDefaultsAndErrors(t *testing.T) {
	e := newTestEngine(t)
	ft := load(t, e, fact(2024, 1, "A", "Norte", 100, 5))

	g, err := e.GroupBy(ft, []Dimension{Product})
	require.NoError(t, err)
	assert.Equal(t, []Aggregate{SumOf(Sales)}, g.Aggs)
	assert.True(t, g.Total(0).Equal(dec(100)))

	_, err = e.GroupBy(ft, []Dimension{"colour"})
	assert.ErrorIs(t, err, ErrUnknownDimension)

	_, err = e.GroupBy(ft, []Dimension{Product}, Aggregate{Measure: "profit", Reducer: Sum})
	assert.ErrorIs(t, err, ErrUnknownAggregate)
}

func TestParseAggregate(t *testing.T) {
	a, err := ParseAggregate("avg:quantity")
	require.NoError(t, err)
	assert.Equal(t, Aggregate{Quantity, Avg}, a)

	a, err = ParseAggregate("count")
	require.NoError(t, err)
	assert.Equal(t, Aggregate{Sales, Count}, a)

	a, err = ParseAggregate("Quantity")
	require.NoError(t, err)
	assert.Equal(t, SumOf(Quantity), a)

	_, err = ParseAggregate("median:sales")
	assert.ErrorIs(t, err, ErrUnknownAggregate)
}

func TestPivotFillsZeroAndChecksArity(t *testing.T) {
	e := newTestEngine(t)
	ft := load(t, e,
		fact(2024, 1, "A", "Norte", 100, 5),
		fact(2025, 1, "A", "Sur", 40, 1),
	)

	tbl := e.PivotYearByRegion(ft)
	assert.Equal(t, []string{"Year", "Norte", "Sur"}, tbl.HeaderNames())
	require.Len(t, tbl.Rows, 2)
	assert.True(t, tbl.Decimal(0, "Norte").Equal(dec(100)))
	assert.True(t, tbl.Decimal(0, "Sur").IsZero())
	assert.True(t, tbl.Decimal(1, "Sur").Equal(dec(40)))

	g, err := e.GroupBy(ft, []Dimension{Year})
	require.NoError(t, err)
	_, err = g.Pivot(0)
	assert.ErrorIs(t, err, ErrPivotArity)

	g, err = e.GroupBy(ft, []Dimension{Year, Region, Product})
	require.NoError(t, err)
	_, err = g.Pivot(0)
	assert.ErrorIs(t, err, ErrPivotArity)
}

// ============================================================================
// 6. CUBE
// ============================================================================

func TestBaseCubeLayout(t *testing.T) {
	e := newTestEngine(t)
	ft := load(t, e,
		fact(2024, 1, "A", "Norte", 100, 5),
		fact(2024, 2, "A", "Norte", 50, 2),
		fact(2024, 4, "A", "Norte", 30, 1),
	)
	cube := e.BuildBaseCube(ft)

	tbl := Shape(cube.Table())
	assert.Equal(t, []string{
		"Product", "Region",
		"2024 / Q1", "2024 / Q2", "2024 / Total", "Total",
	}, tbl.HeaderNames())

	require.Len(t, tbl.Rows, 3)
	assert.Equal(t, Row{"A", "Norte"}, tbl.Rows[0][:2])
	assert.Equal(t, Row{"A", "All regions"}, tbl.Rows[1][:2])
	assert.Equal(t, Row{"All products", ""}, tbl.Rows[2][:2])
	assert.True(t, tbl.Decimal(2, "Total").Equal(dec(180)))
	assert.True(t, tbl.Decimal(0, "2024 / Q1").Equal(dec(150)))
}

func TestCubeFace(t *testing.T) {
	e := newTestEngine(t)
	ft := load(t, e,
		fact(2024, 1, "A", "Norte", 100, 5),
		fact(2024, 4, "A", "Norte", 30, 1),
		fact(2025, 7, "B", "Sur", 9, 1),
	)
	cube := e.BuildBaseCube(ft)

	face, err := cube.Face(2024)
	require.NoError(t, err)
	assert.Equal(t, []string{"Product", "Region", "Q1", "Q2", "Total"}, face.HeaderNames())
	assert.True(t, face.Decimal(0, "Total").Equal(dec(130)))

	empty, err := cube.Face(2030)
	require.NoError(t, err)
	assert.Equal(t, []string{"Product", "Region"}, empty.HeaderNames())
}

func TestBuildCubeRejectsBadSpecs(t *testing.T) {
	e := newTestEngine(t)
	ft := load(t, e, fact(2024, 1, "A", "Norte", 100, 5))

	_, err := e.BuildCube(ft, CubeSpec{Rows: []Dimension{Product}, Cols: []Dimension{Product}, Measure: Sales})
	assert.Error(t, err)

	_, err = e.BuildCube(ft, CubeSpec{Rows: []Dimension{"colour"}, Measure: Sales})
	assert.ErrorIs(t, err, ErrUnknownDimension)

	_, err = e.BuildCube(ft, CubeSpec{Rows: []Dimension{Product}, Measure: "profit"})
	assert.ErrorIs(t, err, ErrUnknownAggregate)
}

func TestCubeWithoutColumnsLabelsTotal(t *testing.T) {
	e := newTestEngine(t)
	ft := load(t, e,
		fact(2024, 1, "A", "Norte", 100, 5),
		fact(2024, 2, "B", "Sur", 50, 2),
	)

	cube, err := e.BuildCube(ft, CubeSpec{Rows: []Dimension{Product}, Measure: Sales})
	require.NoError(t, err)
	tbl := cube.Table()
	assert.Equal(t, []string{"Product", "Total"}, tbl.HeaderNames())
	require.Len(t, tbl.Rows, 3)
	assert.Equal(t, "All products", tbl.Rows[2][0])
	assert.True(t, tbl.Decimal(2, "Total").Equal(dec(150)))
}

func TestEmptyCubeHasGrandTotal(t *testing.T) {
	e := newTestEngine(t)
	cube := e.BuildBaseCube(load(t, e))
	assert.True(t, cube.GrandTotal().IsZero())
	assert.Len(t, cube.RowKeys(), 1)
	assert.Len(t, cube.ColKeys(), 1)
}

// ============================================================================
// 7. SHAPING
// ============================================================================

func TestShape(t *testing.T) {
	in := &ResultTable{
		Title:   "raw",
		Headers: []Header{{"Product"}, {"2024", "Q1"}, {"2024", ""}},
		Rows:    []Row{{"A", nil}, {"B", dec(3), dec(4)}},
	}
	out := Shape(in)
	assert.Equal(t, []Header{{"Product"}, {"2024 / Q1"}, {"2024"}}, out.Headers)
	assert.Equal(t, Row{"A", decimal.Zero, decimal.Zero}, out.Rows[0])
	assert.Equal(t, out, Shape(out))

	// input untouched
	assert.Nil(t, in.Rows[0][1])
	assert.Len(t, in.Headers[1], 2)

	empty := Shape(nil)
	assert.Empty(t, empty.Headers)
	assert.Empty(t, empty.Rows)
}

func TestDrilldownFollowsSchemaCalendar(t *testing.T) {
	records := []Record{
		fact(2024, 1, "A", "Norte", 100, 5),
		fact(2024, 2, "A", "Norte", 50, 2),
	}

	e := newTestEngine(t)
	assert.Equal(t, []string{"Year", "Quarter", "Month", "Sales", "Quantity"},
		e.Drilldown(load(t, e, records...), "A", "Norte").HeaderNames())

	sch := schema.Sales()
	dimensionMeta(sch, "month").Parent = "year"
	flat := newTestEngine(t, WithSchema(sch))
	tbl := flat.Drilldown(load(t, flat, records...), "A", "Norte")
	assert.Equal(t, []string{"Year", "Month", "Sales", "Quantity"}, tbl.HeaderNames())
	assert.Len(t, tbl.Rows, 2)
}

func TestNewRejectsIncompleteSchema(t *testing.T) {
	sch := schema.Sales()
	sch.Dimensions = sch.Dimensions[:len(sch.Dimensions)-1] // drop channel
	_, err := New(WithSchema(sch))
	assert.Error(t, err)
}

// ============================================================================
// 8. SUMMARY
// ============================================================================

func TestSummarize(t *testing.T) {
	e := newTestEngine(t)
	ft := load(t, e,
		fact(2024, 1, "A", "Norte", 100, 5),
		fact(2024, 1, "B", "Sur", 100, 1),
		fact(2024, 2, "A", "Norte", 50, 2),
		fact(2024, 4, "A", "Norte", 300, 1),
	)

	s := e.Summarize(ft)
	assert.Equal(t, 4, s.Records)
	assert.True(t, s.Sales.Equal(dec(550)))
	assert.True(t, s.Quantity.Equal(dec(9)))
	assert.Equal(t, "2024-01 – 2024-04", s.Period)
	assert.Equal(t, "increased", s.Growth.Direction)
	assert.True(t, s.Growth.EarliestValue.Equal(dec(200)))
	assert.True(t, s.Growth.ChangeAmount.Equal(dec(100)))
	assert.True(t, s.Growth.ChangePercent.Equal(dec(50)))

	one := e.Summarize(e.CellDetail(ft, 2024, 2, "A", "Norte"))
	assert.Equal(t, "2024-02", one.Period)
	assert.Equal(t, "insufficient data", one.Growth.Direction)

	empty := e.Summarize(load(t, e))
	assert.Equal(t, "No data", empty.Period)
	assert.Len(t, Shape(empty.Table()).Rows, 9)
}
