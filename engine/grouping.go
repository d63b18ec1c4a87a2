package engine

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// ============================================================================
// GROUPING — Bucketing, aggregation and partitioned reduction
// ============================================================================
// Every aggregation in the engine (roll-up, drill-down, pivot, cube cells and
// margins) runs through reduce: a keyFunc emits one or more tuples per
// record and each tuple's bucket folds the record's measures.
//
// Large views are partitioned by row index across workers, reduced locally,
// then merged in partition order. Partials merge exactly and averages are
// finalized from the merged sum and count, so both paths return the same
// values.
// ============================================================================

// Group is one aggregated bucket of a Grouping.
type Group struct {
	Key    Tuple             `json:"key"`
	Values []decimal.Decimal `json:"values"` // one per Grouping.Aggs
	Count  int               `json:"count"`  // records folded into the group
}

// Grouping is the result of GroupBy: groups sorted by key in display order.
type Grouping struct {
	Dims   []Dimension `json:"dims"`
	Aggs   []Aggregate `json:"aggs"`
	Groups []Group     `json:"groups"`

	cfg *config
}

// GroupBy groups the view by dims and reduces each group with aggs.
// With no aggregates, the sum of sales is used.
func (e *Engine) GroupBy(view FactView, dims []Dimension, aggs ...Aggregate) (*Grouping, error) {
	for _, d := range dims {
		if !d.Valid() {
			return nil, &DimensionError{Name: string(d)}
		}
	}
	if len(aggs) == 0 {
		aggs = []Aggregate{SumOf(Sales)}
	}
	for _, a := range aggs {
		if !a.valid() {
			return nil, fmt.Errorf("%w: %s(%s)", ErrUnknownAggregate, a.Reducer, a.Measure)
		}
	}

	bs := e.reduce(view, aggs, func(r Record, emit func(Tuple)) {
		key := make(Tuple, len(dims))
		for i, d := range dims {
			key[i] = r.Member(d)
		}
		emit(key)
	})

	g := &Grouping{
		Dims:   append([]Dimension(nil), dims...),
		Aggs:   append([]Aggregate(nil), aggs...),
		Groups: make([]Group, 0, len(bs)),
		cfg:    e.cfg,
	}
	for _, b := range bs {
		vals := make([]decimal.Decimal, len(aggs))
		for i, a := range aggs {
			vals[i] = b.accs[i].result(a.Reducer)
		}
		g.Groups = append(g.Groups, Group{Key: b.key, Values: vals, Count: b.count})
	}
	g.sort()
	return g, nil
}

func (g *Grouping) sort() {
	sort.SliceStable(g.Groups, func(i, j int) bool {
		return g.cfg.compareTuples(g.Groups[i].Key, g.Groups[j].Key) < 0
	})
}

// Lookup returns the group with the given key.
func (g *Grouping) Lookup(key Tuple) (Group, bool) {
	for _, grp := range g.Groups {
		if grp.Key.Equal(key) {
			return grp, true
		}
	}
	return Group{}, false
}

// Total sums one aggregate column over every group.
func (g *Grouping) Total(agg int) decimal.Decimal {
	total := decimal.Zero
	for _, grp := range g.Groups {
		if agg >= 0 && agg < len(grp.Values) {
			total = total.Add(grp.Values[agg])
		}
	}
	return total
}

// Table returns the grouping as a Result Table: one column per key dimension
// followed by one column per aggregate, rows in key order.
func (g *Grouping) Table() *ResultTable {
	headers := make([]Header, 0, len(g.Dims)+len(g.Aggs))
	for _, d := range g.Dims {
		headers = append(headers, Header{g.cfg.dimensionLabel(d)})
	}
	for _, a := range g.Aggs {
		headers = append(headers, Header{g.cfg.aggregateLabel(a)})
	}

	rows := make([]Row, 0, len(g.Groups))
	for _, grp := range g.Groups {
		row := make(Row, 0, len(headers))
		row = append(row, g.cfg.tupleCells(grp.Key)...)
		for _, v := range grp.Values {
			row = append(row, v)
		}
		rows = append(rows, row)
	}
	return &ResultTable{Headers: headers, Rows: rows}
}

// Pivot reshapes a two-key grouping: distinct members of the first key become
// rows, distinct members of the second key become columns, and each cell is
// the agg-th aggregate of the matching group, or zero when no group exists.
func (g *Grouping) Pivot(agg int) (*ResultTable, error) {
	if len(g.Dims) != 2 {
		return nil, fmt.Errorf("%w: grouping has %d", ErrPivotArity, len(g.Dims))
	}
	if agg < 0 || agg >= len(g.Aggs) {
		return nil, fmt.Errorf("%w: aggregate index %d out of range", ErrUnknownAggregate, agg)
	}

	var rowKeys, colKeys []Member
	seenRow := make(map[Member]bool)
	seenCol := make(map[Member]bool)
	cells := make(map[[2]Member]decimal.Decimal, len(g.Groups))
	for _, grp := range g.Groups {
		r, c := grp.Key[0], grp.Key[1]
		if !seenRow[r] {
			seenRow[r] = true
			rowKeys = append(rowKeys, r)
		}
		if !seenCol[c] {
			seenCol[c] = true
			colKeys = append(colKeys, c)
		}
		cells[[2]Member{r, c}] = grp.Values[agg]
	}
	g.cfg.sortMembers(rowKeys)
	g.cfg.sortMembers(colKeys)

	headers := make([]Header, 0, len(colKeys)+1)
	headers = append(headers, Header{g.cfg.dimensionLabel(g.Dims[0])})
	for _, c := range colKeys {
		headers = append(headers, Header{g.cfg.memberLabel(c)})
	}

	rows := make([]Row, 0, len(rowKeys))
	for _, r := range rowKeys {
		row := make(Row, 0, len(headers))
		row = append(row, r.Native())
		for _, c := range colKeys {
			v, ok := cells[[2]Member{r, c}]
			if !ok {
				v = decimal.Zero
			}
			row = append(row, v)
		}
		rows = append(rows, row)
	}
	return &ResultTable{Headers: headers, Rows: rows}, nil
}

// ============================================================================
// REDUCTION
// ============================================================================

// keyFunc emits the bucket keys a record contributes to.
type keyFunc func(r Record, emit func(Tuple))

type bucket struct {
	key   Tuple
	accs  []accumulator
	count int
}

type buckets map[string]*bucket

// reduce folds every record of the view into the buckets its keyFunc emits.
func (e *Engine) reduce(view FactView, aggs []Aggregate, keys keyFunc) buckets {
	n := view.Len()
	workers := e.cfg.Workers
	if workers > n {
		workers = n
	}
	start := time.Now()

	if workers < 2 || n < e.cfg.PartitionThreshold {
		out := make(buckets)
		for i := 0; i < n; i++ {
			out.fold(view.Record(i), aggs, keys)
		}
		return out
	}

	parts := make([]buckets, workers)
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			local := make(buckets)
			for i := w; i < n; i += workers {
				local.fold(view.Record(i), aggs, keys)
			}
			parts[w] = local
			return nil
		})
	}
	_ = g.Wait() // workers never fail

	out := parts[0]
	for _, p := range parts[1:] {
		out.merge(p)
	}
	e.log.V(2).Info("partitioned reduce", "records", n, "workers", workers, "buckets", len(out), "elapsed", time.Since(start))
	return out
}

func (bs buckets) fold(r Record, aggs []Aggregate, keys keyFunc) {
	keys(r, func(t Tuple) {
		k := t.key()
		b, ok := bs[k]
		if !ok {
			b = &bucket{key: append(Tuple(nil), t...), accs: make([]accumulator, len(aggs))}
			bs[k] = b
		}
		b.count++
		for i, a := range aggs {
			b.accs[i].add(r.Measure(a.Measure))
		}
	})
}

func (bs buckets) merge(other buckets) {
	for k, ob := range other {
		b, ok := bs[k]
		if !ok {
			bs[k] = ob
			continue
		}
		b.count += ob.count
		for i := range b.accs {
			b.accs[i].merge(ob.accs[i])
		}
	}
}

// accumulator keeps every partial needed by the supported reducers.
type accumulator struct {
	sum      decimal.Decimal
	count    int64
	min, max decimal.Decimal
}

func (a *accumulator) add(v decimal.Decimal) {
	if a.count == 0 || v.LessThan(a.min) {
		a.min = v
	}
	if a.count == 0 || v.GreaterThan(a.max) {
		a.max = v
	}
	a.sum = a.sum.Add(v)
	a.count++
}

func (a *accumulator) merge(o accumulator) {
	if o.count == 0 {
		return
	}
	if a.count == 0 || o.min.LessThan(a.min) {
		a.min = o.min
	}
	if a.count == 0 || o.max.GreaterThan(a.max) {
		a.max = o.max
	}
	a.sum = a.sum.Add(o.sum)
	a.count += o.count
}

func (a accumulator) result(r Reducer) decimal.Decimal {
	switch r {
	case Count:
		return decimal.NewFromInt(a.count)
	case Avg:
		if a.count == 0 {
			return decimal.Zero
		}
		return a.sum.Div(decimal.NewFromInt(a.count))
	case Min:
		return a.min
	case Max:
		return a.max
	default:
		return a.sum
	}
}
