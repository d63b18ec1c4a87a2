package engine

// ============================================================================
// FILTERS — Slice, Dice and Cell Detail via FactView
// ============================================================================
// Single-pass filter: checks ALL dimension constraints per record in one loop.
// Returns a subView (index list into parent) — zero data copy.
// ============================================================================

// Predicates constrain dimensions to allowed value sets.
// Dimensions are AND-combined; values within a dimension are OR-combined.
// Omitted dimensions are unconstrained. A dimension mapped to an empty set
// matches no record.
type Predicates map[Dimension][]any

// memberSet is the allowed members of one dimension.
type memberSet map[Member]struct{}

// Dice returns the records satisfying every predicate.
// It fails only when a predicate names an unknown dimension; values that are
// absent from the data, or cannot be members of their dimension, simply
// match nothing.
func (e *Engine) Dice(view FactView, preds Predicates) (FactView, error) {
	sets, err := e.compile(preds)
	if err != nil {
		return nil, err
	}
	out := applySets(view, sets)
	e.log.V(1).Info("dice", "predicates", len(preds), "in", view.Len(), "out", out.Len())
	return out, nil
}

// Slice returns the records whose member on d equals value.
func (e *Engine) Slice(view FactView, d Dimension, value any) (FactView, error) {
	return e.Dice(view, Predicates{d: {value}})
}

// CellDetail returns the transactions behind one base cube cell: a dice with
// year, quarter, product and region each fixed to a single value.
func (e *Engine) CellDetail(view FactView, year, quarter int, product, region string) FactView {
	sets := map[Dimension]memberSet{
		Year:    singleton(Year, year),
		Quarter: singleton(Quarter, quarter),
		Product: singleton(Product, product),
		Region:  singleton(Region, region),
	}
	return applySets(view, sets)
}

// compile validates predicate dimensions and converts values to member sets.
func (e *Engine) compile(preds Predicates) (map[Dimension]memberSet, error) {
	sets := make(map[Dimension]memberSet, len(preds))
	for d, values := range preds {
		if !d.Valid() {
			return nil, &DimensionError{Name: string(d)}
		}
		set := make(memberSet, len(values))
		for _, v := range values {
			if m, ok := MemberOf(d, v); ok {
				set[m] = struct{}{}
			}
		}
		sets[d] = set
	}
	return sets, nil
}

func singleton(d Dimension, v any) memberSet {
	m, _ := MemberOf(d, v)
	return memberSet{m: {}}
}

// applySets returns a view of records whose members fall in every set.
// No sets = no constraints (returns original view).
func applySets(view FactView, sets map[Dimension]memberSet) FactView {
	if len(sets) == 0 {
		return view
	}

	// An empty allowed set is a vacuous AND clause.
	for _, set := range sets {
		if len(set) == 0 {
			return newSubView(view, nil)
		}
	}

	// Single pass — record passes if it matches ALL dimension filters
	n := view.Len()
	indices := make([]int, 0, n)
	for i := 0; i < n; i++ {
		r := view.Record(i)
		pass := true
		for d, set := range sets {
			if _, ok := set[r.Member(d)]; !ok {
				pass = false
				break
			}
		}
		if pass {
			indices = append(indices, i)
		}
	}

	return newSubView(view, indices)
}
