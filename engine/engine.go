package engine

import (
	"fmt"

	"github.com/go-logr/logr"
)

// ============================================================================
// ENGINE — Entry point for loading facts and running cube operations
// ============================================================================
// An Engine holds configuration only. Every operation is a pure function of
// its inputs: the fact view is never mutated and every Cube or ResultTable
// returned is freshly built and owned by the caller. An Engine is safe for
// concurrent use.
// ============================================================================

// Engine runs OLAP operations over fact views.
type Engine struct {
	cfg *config
	log logr.Logger
}

// New creates an Engine. It fails when the configured schema is invalid or
// does not describe every dimension of the fact record.
func New(opts ...Option) (*Engine, error) {
	cfg := applyOptions(opts)
	if err := cfg.Schema.Validate(); err != nil {
		return nil, err
	}
	for _, d := range Dimensions() {
		if _, ok := cfg.Schema.Dimension(string(d)); !ok {
			return nil, fmt.Errorf("schema %q does not describe dimension %q", cfg.Schema.Name, d)
		}
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	return &Engine{
		cfg: cfg,
		log: cfg.Logger.WithName("engine"),
	}, nil
}

// ParseDimension resolves a dimension by key, display name or schema alias.
func (e *Engine) ParseDimension(name string) (Dimension, error) {
	if d := Dimension(name); d.Valid() {
		return d, nil
	}
	if meta, ok := e.cfg.Schema.Lookup(name); ok {
		if d := Dimension(meta.Key); d.Valid() {
			return d, nil
		}
	}
	return "", &DimensionError{Name: name}
}

// Catalog returns the distinct members of d present in the view, in display
// order: numeric dimensions numerically, categorical ones by canonical schema
// order, then lexicographically.
func (e *Engine) Catalog(view FactView, d Dimension) ([]Member, error) {
	if !d.Valid() {
		return nil, &DimensionError{Name: string(d)}
	}
	seen := make(map[Member]bool)
	var members []Member
	for i := 0; i < view.Len(); i++ {
		m := view.Record(i).Member(d)
		if !seen[m] {
			seen[m] = true
			members = append(members, m)
		}
	}
	e.cfg.sortMembers(members)
	return members, nil
}
