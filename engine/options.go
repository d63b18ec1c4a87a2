package engine

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/go-logr/logr"

	"github.com/spektr-org/olap/schema"
)

// ============================================================================
// ENGINE OPTIONS — Functional options for New()
// ============================================================================

// Option configures engine behavior via functional options pattern.
type Option func(*config)

// ValidationMode selects how Load treats a record whose quarter disagrees
// with its month.
type ValidationMode int

const (
	// ValidationStrict rejects the record with a ValidationError.
	ValidationStrict ValidationMode = iota
	// ValidationNormalize overwrites the quarter with QuarterOf(month).
	ValidationNormalize
)

func (m ValidationMode) String() string {
	switch m {
	case ValidationNormalize:
		return "normalize"
	default:
		return "strict"
	}
}

// ParseValidationMode parses "strict" or "normalize"; empty means strict.
func ParseValidationMode(s string) (ValidationMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return ValidationStrict, nil
	case "normalize":
		return ValidationNormalize, nil
	}
	return ValidationStrict, fmt.Errorf("unknown validation mode %q", s)
}

type config struct {
	Logger             logr.Logger
	Schema             schema.Config
	Workers            int // goroutines used for partitioned reduction
	PartitionThreshold int // minimum view length before partitioning kicks in
	Validation         ValidationMode

	order    map[Dimension]map[string]int // canonical member positions from schema
	numeric  map[Dimension]bool           // dimensions whose members order numerically
	calendar []Dimension                  // temporal ancestors of month, coarsest first
}

// WithLogger sets the logger. The engine logs under the name "engine".
func WithLogger(logger logr.Logger) Option {
	return func(c *config) {
		c.Logger = logger
	}
}

// WithSchema replaces the built-in sales schema (labels, aliases, order).
func WithSchema(sch schema.Config) Option {
	return func(c *config) {
		c.Schema = sch
	}
}

// WithWorkers sets how many partitions a large view is reduced in.
// Values below 2 disable partitioning.
func WithWorkers(n int) Option {
	return func(c *config) {
		c.Workers = n
	}
}

// WithPartitionThreshold sets the view length from which reduction is partitioned.
func WithPartitionThreshold(n int) Option {
	return func(c *config) {
		c.PartitionThreshold = n
	}
}

// WithValidation selects the quarter invariant handling at Load.
func WithValidation(mode ValidationMode) Option {
	return func(c *config) {
		c.Validation = mode
	}
}

// applyOptions creates a config from functional options.
func applyOptions(opts []Option) *config {
	cfg := &config{
		Schema:             schema.Sales(),
		Workers:            runtime.GOMAXPROCS(0),
		PartitionThreshold: 50_000,
		Validation:         ValidationStrict,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Logger.GetSink() == nil {
		cfg.Logger = logr.Discard()
	}

	cfg.order = make(map[Dimension]map[string]int)
	cfg.numeric = make(map[Dimension]bool)
	for _, d := range cfg.Schema.Dimensions {
		if d.IsNumeric {
			cfg.numeric[Dimension(d.Key)] = true
		}
		if len(d.Order) == 0 {
			continue
		}
		pos := make(map[string]int, len(d.Order))
		for i, v := range d.Order {
			pos[v] = i
		}
		cfg.order[Dimension(d.Key)] = pos
	}
	cfg.calendar = calendarOf(cfg.Schema)
	return cfg
}

// calendarOf walks the Parent links up from month and keeps the temporal
// dimensions of the fact record. Month is always the finest level.
func calendarOf(sch schema.Config) []Dimension {
	var cal []Dimension
	for _, key := range sch.Hierarchy(string(Month)) {
		d := Dimension(key)
		if meta, ok := sch.Dimension(key); d == Month || (ok && meta.IsTemporal && d.Valid()) {
			cal = append(cal, d)
		}
	}
	return cal
}
