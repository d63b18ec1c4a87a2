package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ============================================================================
// OLAP ENGINE TYPES — Sales fact records, dimensions and measures
// ============================================================================
// The fact record shape is fixed: three calendar dimensions (year, quarter,
// month), three categorical dimensions (product, region, channel) and two
// measures (sales, quantity). Sales is a decimal so that every subtotal and
// grand total reconciles exactly.
// ============================================================================

// ============================================================================
// RECORD — One row of the fact table
// ============================================================================

// Record is a single sales transaction.
// Quarter must always equal QuarterOf(Month); Load enforces this.
type Record struct {
	Year     int             `json:"year"`
	Month    int             `json:"month"`
	Quarter  int             `json:"quarter"`
	Product  string          `json:"product"`
	Region   string          `json:"region"`
	Channel  string          `json:"channel"`
	Sales    decimal.Decimal `json:"sales"`
	Quantity int64           `json:"quantity"`
}

// Member returns the record's member on a dimension.
// Unknown dimensions yield the zero Member, which matches nothing.
func (r Record) Member(d Dimension) Member {
	switch d {
	case Year:
		return Member{Dim: d, Value: strconv.Itoa(r.Year)}
	case Quarter:
		return Member{Dim: d, Value: strconv.Itoa(r.Quarter)}
	case Month:
		return Member{Dim: d, Value: strconv.Itoa(r.Month)}
	case Product:
		return Member{Dim: d, Value: r.Product}
	case Region:
		return Member{Dim: d, Value: r.Region}
	case Channel:
		return Member{Dim: d, Value: r.Channel}
	}
	return Member{}
}

// Measure returns the record's value for a measure.
func (r Record) Measure(m Measure) decimal.Decimal {
	switch m {
	case Sales:
		return r.Sales
	case Quantity:
		return decimal.NewFromInt(r.Quantity)
	}
	return decimal.Zero
}

// ============================================================================
// DIMENSIONS
// ============================================================================

// Dimension names an attribute records can be grouped and filtered by.
type Dimension string

const (
	Year    Dimension = "year"
	Quarter Dimension = "quarter"
	Month   Dimension = "month"
	Product Dimension = "product"
	Region  Dimension = "region"
	Channel Dimension = "channel"
)

// Dimensions lists every dimension in fact-table column order.
func Dimensions() []Dimension {
	return []Dimension{Year, Month, Quarter, Product, Region, Channel}
}

// Valid reports whether d is a dimension of the fact record.
func (d Dimension) Valid() bool {
	switch d {
	case Year, Quarter, Month, Product, Region, Channel:
		return true
	}
	return false
}

// integral reports whether the record field behind d is an integer, so that
// members parse and render as integers.
func (d Dimension) integral() bool {
	return d == Year || d == Quarter || d == Month
}

// ============================================================================
// MEASURES & AGGREGATES
// ============================================================================

// Measure names a numeric attribute of a record.
type Measure string

const (
	Sales    Measure = "sales"
	Quantity Measure = "quantity"
)

// Valid reports whether m is a measure of the fact record.
func (m Measure) Valid() bool {
	return m == Sales || m == Quantity
}

// Reducer combines measure values of a group.
type Reducer string

const (
	Sum   Reducer = "sum"
	Count Reducer = "count"
	Avg   Reducer = "avg"
	Min   Reducer = "min"
	Max   Reducer = "max"
)

// Aggregate is one (measure, reducer) column of a grouping.
type Aggregate struct {
	Measure Measure `json:"measure"`
	Reducer Reducer `json:"reducer"`
}

// SumOf is shorthand for Aggregate{Measure: m, Reducer: Sum}.
func SumOf(m Measure) Aggregate {
	return Aggregate{Measure: m, Reducer: Sum}
}

func (a Aggregate) valid() bool {
	if !a.Measure.Valid() {
		return false
	}
	switch a.Reducer {
	case Sum, Count, Avg, Min, Max:
		return true
	}
	return false
}

// ParseAggregate parses "reducer:measure" such as "avg:sales". A bare
// reducer applies to sales and a bare measure is summed.
func ParseAggregate(s string) (Aggregate, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	red, meas, found := strings.Cut(s, ":")
	a := Aggregate{Measure: Sales, Reducer: Reducer(red)}
	switch {
	case found:
		a.Measure = Measure(meas)
	case Measure(red).Valid():
		a = SumOf(Measure(red))
	}
	if !a.valid() {
		return Aggregate{}, fmt.Errorf("%w: %q", ErrUnknownAggregate, s)
	}
	return a, nil
}
