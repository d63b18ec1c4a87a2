package engine

import (
	"fmt"
)

// ============================================================================
// FACT VIEW — Read-only indexed access to fact records
// ============================================================================
// The engine never mutates fact data. It reads through this interface.
//
// Implementations:
//   FactTable — owns a validated copy of the loaded records
//   subView   — filtered subset (indices into parent, zero-copy)
//
// Slice, Dice and CellDetail return subViews, so chaining filters never
// copies records.
// ============================================================================

// FactView provides indexed access to fact records.
type FactView interface {
	Len() int
	Record(index int) Record
}

// Records copies every record of a view into a slice.
func Records(view FactView) []Record {
	out := make([]Record, view.Len())
	for i := range out {
		out[i] = view.Record(i)
	}
	return out
}

// ============================================================================
// FACT TABLE — validated, immutable input
// ============================================================================

// FactTable is the immutable input of every operation.
type FactTable struct {
	records []Record
}

func (t *FactTable) Len() int { return len(t.records) }

func (t *FactTable) Record(i int) Record {
	if i < 0 || i >= len(t.records) {
		return Record{}
	}
	return t.records[i]
}

// Load validates records and returns them as a FactTable. The input slice is
// copied; later changes to it do not affect the table.
//
// A zero Quarter is derived from Month. A non-zero Quarter that disagrees
// with QuarterOf(Month) is rejected in ValidationStrict mode and overwritten
// in ValidationNormalize mode. Months outside [1,12] and negative measures
// are always rejected.
func (e *Engine) Load(records []Record) (*FactTable, error) {
	out := make([]Record, len(records))
	normalized := 0
	for i, r := range records {
		if r.Month < 1 || r.Month > 12 {
			return nil, &ValidationError{Index: i, Field: "month", Reason: fmt.Sprintf("%d is outside [1,12]", r.Month), Record: r}
		}
		if r.Sales.IsNegative() {
			return nil, &ValidationError{Index: i, Field: "sales", Reason: "must not be negative", Record: r}
		}
		if r.Quantity < 0 {
			return nil, &ValidationError{Index: i, Field: "quantity", Reason: "must not be negative", Record: r}
		}

		want := QuarterOf(r.Month)
		switch {
		case r.Quarter == 0:
			r.Quarter = want
		case r.Quarter != want && e.cfg.Validation == ValidationNormalize:
			r.Quarter = want
			normalized++
		case r.Quarter != want:
			return nil, &ValidationError{
				Index:  i,
				Field:  "quarter",
				Reason: fmt.Sprintf("Q%d does not match month %d (expected Q%d)", r.Quarter, r.Month, want),
				Record: r,
			}
		}
		out[i] = r
	}

	if normalized > 0 {
		e.log.Info("normalized quarters that disagreed with their month", "records", normalized)
	}
	e.log.V(1).Info("loaded fact table", "records", len(out), "validation", e.cfg.Validation.String())
	return &FactTable{records: out}, nil
}

// ============================================================================
// SUB VIEW — filtered subset (zero-copy)
// ============================================================================

// subView is a filtered subset of a parent FactView.
// Holds indices into the parent; records are not copied.
type subView struct {
	parent  FactView
	indices []int
}

func newSubView(parent FactView, indices []int) FactView {
	return &subView{parent: parent, indices: indices}
}

func (v *subView) Len() int { return len(v.indices) }

func (v *subView) Record(i int) Record {
	if i < 0 || i >= len(v.indices) {
		return Record{}
	}
	return v.parent.Record(v.indices[i])
}
