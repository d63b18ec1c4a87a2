package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ============================================================================
// SCHEMA — Describes the shape of the sales fact table
// ============================================================================
// The engine uses schema metadata for dimension lookup (keys and aliases),
// display labels, member ordering (IsNumeric, Order) and margin labels.
// The calendar hierarchy is expressed through Parent links between temporal
// dimensions:
//   month → quarter → year
// ============================================================================

// ErrInvalidSchema is wrapped by every error returned from Validate.
var ErrInvalidSchema = errors.New("invalid schema")

// Config describes the complete shape of a fact table.
type Config struct {
	Name        string `json:"name" yaml:"name"`
	Version     string `json:"version,omitempty" yaml:"version,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	Dimensions []DimensionMeta `json:"dimensions" yaml:"dimensions"`
	Measures   []MeasureMeta   `json:"measures" yaml:"measures"`

	// Margin label for dimensions that do not declare their own.
	TotalLabel string `json:"totalLabel,omitempty" yaml:"totalLabel,omitempty"`
}

// DimensionMeta describes a field used for grouping/filtering.
type DimensionMeta struct {
	Key         string   `json:"key" yaml:"key"`
	DisplayName string   `json:"displayName" yaml:"displayName"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Aliases     []string `json:"aliases,omitempty" yaml:"aliases,omitempty"` // Alternative names ("año", "Year")
	Parent      string   `json:"parent,omitempty" yaml:"parent,omitempty"`   // Parent dimension key for hierarchies
	IsTemporal  bool     `json:"isTemporal,omitempty" yaml:"isTemporal,omitempty"`
	IsNumeric   bool     `json:"isNumeric,omitempty" yaml:"isNumeric,omitempty"` // Members order numerically
	Order       []string `json:"order,omitempty" yaml:"order,omitempty"`             // Canonical member order; unlisted members sort after
	MarginLabel string   `json:"marginLabel,omitempty" yaml:"marginLabel,omitempty"` // "All products"
	Format      string   `json:"format,omitempty" yaml:"format,omitempty"`           // Member label format, e.g. "Q%s"
}

// MeasureMeta describes a numeric field used for aggregation.
type MeasureMeta struct {
	Key         string   `json:"key" yaml:"key"`
	DisplayName string   `json:"displayName" yaml:"displayName"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Aliases     []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
}

// Sales returns the built-in schema of the synthetic sales fact table.
func Sales() Config {
	return Config{
		Name:        "sales",
		Version:     "1",
		Description: "Synthetic sales transactions by product, region, channel and calendar month.",
		TotalLabel:  "Total",
		Dimensions: []DimensionMeta{
			{Key: "year", DisplayName: "Year", Aliases: []string{"año", "anio"}, IsTemporal: true, IsNumeric: true},
			{Key: "quarter", DisplayName: "Quarter", Aliases: []string{"trimestre"}, Parent: "year", IsTemporal: true, IsNumeric: true, Format: "Q%s"},
			{Key: "month", DisplayName: "Month", Aliases: []string{"mes"}, Parent: "quarter", IsTemporal: true, IsNumeric: true},
			{Key: "product", DisplayName: "Product", Aliases: []string{"producto"}, Order: []string{"A", "B", "C", "D"}, MarginLabel: "All products"},
			{Key: "region", DisplayName: "Region", Aliases: []string{"región"}, MarginLabel: "All regions"},
			{Key: "channel", DisplayName: "Channel", Aliases: []string{"canal"}, MarginLabel: "All channels"},
		},
		Measures: []MeasureMeta{
			{Key: "sales", DisplayName: "Sales", Aliases: []string{"ventas"}},
			{Key: "quantity", DisplayName: "Quantity", Aliases: []string{"cantidad"}},
		},
	}
}

// ============================================================================
// LOOKUP
// ============================================================================

// Dimension returns the metadata for a dimension key.
func (c Config) Dimension(key string) (DimensionMeta, bool) {
	for _, d := range c.Dimensions {
		if d.Key == key {
			return d, true
		}
	}
	return DimensionMeta{}, false
}

// Measure returns the metadata for a measure key.
func (c Config) Measure(key string) (MeasureMeta, bool) {
	for _, m := range c.Measures {
		if m.Key == key {
			return m, true
		}
	}
	return MeasureMeta{}, false
}

// Lookup resolves a dimension by key, display name or alias (case-insensitive).
func (c Config) Lookup(name string) (DimensionMeta, bool) {
	n := normalizeName(name)
	for _, d := range c.Dimensions {
		if matches(n, d.Key, d.DisplayName, d.Aliases) {
			return d, true
		}
	}
	return DimensionMeta{}, false
}

// LookupMeasure resolves a measure by key, display name or alias (case-insensitive).
func (c Config) LookupMeasure(name string) (MeasureMeta, bool) {
	n := normalizeName(name)
	for _, m := range c.Measures {
		if matches(n, m.Key, m.DisplayName, m.Aliases) {
			return m, true
		}
	}
	return MeasureMeta{}, false
}

// Hierarchy returns the chain of dimension keys from the root down to key,
// following Parent links. For "month" in the sales schema: [year quarter month].
// Unknown keys stop the walk.
func (c Config) Hierarchy(key string) []string {
	var chain []string
	seen := make(map[string]bool)
	for key != "" && !seen[key] {
		seen[key] = true
		chain = append([]string{key}, chain...)
		d, ok := c.Dimension(key)
		if !ok {
			break
		}
		key = d.Parent
	}
	return chain
}

// Label returns the display name for a dimension or measure key.
// Unknown keys are returned unchanged.
func (c Config) Label(key string) string {
	if d, ok := c.Dimension(key); ok && d.DisplayName != "" {
		return d.DisplayName
	}
	if m, ok := c.Measure(key); ok && m.DisplayName != "" {
		return m.DisplayName
	}
	return key
}

// MarginLabel returns the label for the "all members" margin of a dimension.
func (c Config) MarginLabel(key string) string {
	if d, ok := c.Dimension(key); ok && d.MarginLabel != "" {
		return d.MarginLabel
	}
	return c.Total()
}

// Total returns the grand total label.
func (c Config) Total() string {
	if c.TotalLabel != "" {
		return c.TotalLabel
	}
	return "Total"
}

// FormatMember renders a member value using the dimension's Format, if any.
func (c Config) FormatMember(key, value string) string {
	if d, ok := c.Dimension(key); ok && d.Format != "" {
		return fmt.Sprintf(d.Format, value)
	}
	return value
}

// ============================================================================
// VALIDATION
// ============================================================================

// Validate checks key uniqueness, member formats, parent references and
// hierarchy cycles.
func (c Config) Validate() error {
	seen := make(map[string]bool)
	for _, d := range c.Dimensions {
		if d.Key == "" {
			return fmt.Errorf("%w: dimension with empty key", ErrInvalidSchema)
		}
		if seen[d.Key] {
			return fmt.Errorf("%w: duplicate key %q", ErrInvalidSchema, d.Key)
		}
		seen[d.Key] = true
		if d.Format != "" && !validFormat(d.Format) {
			return fmt.Errorf("%w: dimension %q format %q must hold exactly one %%s verb", ErrInvalidSchema, d.Key, d.Format)
		}
	}
	for _, m := range c.Measures {
		if m.Key == "" {
			return fmt.Errorf("%w: measure with empty key", ErrInvalidSchema)
		}
		if seen[m.Key] {
			return fmt.Errorf("%w: duplicate key %q", ErrInvalidSchema, m.Key)
		}
		seen[m.Key] = true
	}

	for _, d := range c.Dimensions {
		if d.Parent == "" {
			continue
		}
		if _, ok := c.Dimension(d.Parent); !ok {
			return fmt.Errorf("%w: dimension %q has unknown parent %q", ErrInvalidSchema, d.Key, d.Parent)
		}
		// Walk up; a hierarchy deeper than the dimension count is a cycle.
		cur, steps := d.Parent, 0
		for cur != "" {
			if cur == d.Key || steps > len(c.Dimensions) {
				return fmt.Errorf("%w: hierarchy cycle through %q", ErrInvalidSchema, d.Key)
			}
			p, _ := c.Dimension(cur)
			cur = p.Parent
			steps++
		}
	}
	return nil
}

// Merge overlays non-empty fields from override onto c. Boolean flags can
// only be switched on; a schema passed whole to the engine can clear them.
// Keys present only in override are ignored: the fact record shape is fixed.
func (c Config) Merge(override Config) Config {
	out := c
	out.Dimensions = append([]DimensionMeta(nil), c.Dimensions...)
	out.Measures = append([]MeasureMeta(nil), c.Measures...)
	if override.Name != "" {
		out.Name = override.Name
	}
	if override.TotalLabel != "" {
		out.TotalLabel = override.TotalLabel
	}
	for _, od := range override.Dimensions {
		for i := range out.Dimensions {
			d := &out.Dimensions[i]
			if d.Key != od.Key {
				continue
			}
			if od.DisplayName != "" {
				d.DisplayName = od.DisplayName
			}
			if od.MarginLabel != "" {
				d.MarginLabel = od.MarginLabel
			}
			if len(od.Order) > 0 {
				d.Order = od.Order
			}
			if od.Format != "" {
				d.Format = od.Format
			}
			if od.Parent != "" {
				d.Parent = od.Parent
			}
			d.IsTemporal = d.IsTemporal || od.IsTemporal
			d.IsNumeric = d.IsNumeric || od.IsNumeric
			d.Aliases = append(append([]string(nil), d.Aliases...), od.Aliases...)
		}
	}
	for _, om := range override.Measures {
		for i := range out.Measures {
			m := &out.Measures[i]
			if m.Key != om.Key {
				continue
			}
			if om.DisplayName != "" {
				m.DisplayName = om.DisplayName
			}
			m.Aliases = append(append([]string(nil), m.Aliases...), om.Aliases...)
		}
	}
	return out
}

// ============================================================================
// STRING UTILITIES
// ============================================================================

// validFormat accepts a member format with exactly one %s verb; "%%" is a
// literal percent sign.
func validFormat(f string) bool {
	rest := strings.ReplaceAll(f, "%%", "")
	return strings.Count(rest, "%s") == 1 && strings.Count(rest, "%") == 1
}

func matches(normalized, key, display string, aliases []string) bool {
	if normalized == normalizeName(key) || normalized == normalizeName(display) {
		return true
	}
	for _, a := range aliases {
		if normalized == normalizeName(a) {
			return true
		}
	}
	return false
}

// normalizeName converts "Column Name" → "column_name".
func normalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	return s
}
