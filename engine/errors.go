package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRecord is wrapped by every ingestion ValidationError.
	ErrInvalidRecord = errors.New("invalid fact record")
	// ErrUnknownDimension is wrapped by DimensionError.
	ErrUnknownDimension = errors.New("unknown dimension")
	// ErrUnknownAggregate reports a measure or reducer the engine does not know.
	ErrUnknownAggregate = errors.New("unknown aggregate")
	// ErrPivotArity is returned when pivoting a grouping without exactly two keys.
	ErrPivotArity = errors.New("pivot requires exactly two key dimensions")
)

// ValidationError describes a fact record rejected at ingestion.
type ValidationError struct {
	Index  int
	Field  string
	Reason string
	Record Record
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("record %d: %s: %s", e.Index, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidRecord }

// DimensionError names a dimension that does not exist in the schema.
type DimensionError struct {
	Name string
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("unknown dimension %q", e.Name)
}

func (e *DimensionError) Unwrap() error { return ErrUnknownDimension }
