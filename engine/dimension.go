package engine

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// ============================================================================
// DIMENSION HIERARCHY — Calendar derivation, members and tuples
// ============================================================================
// Members are canonical string values tagged with their dimension; numeric
// dimensions store the decimal integer. The All member is the margin
// sentinel: a cube entry keyed by All on a dimension aggregates over every
// member of that dimension.
// ============================================================================

// QuarterOf returns ceil(month/3).
func QuarterOf(month int) int {
	return (month + 2) / 3
}

// Member is one value of a dimension, or the All margin sentinel.
type Member struct {
	Dim   Dimension `json:"dim"`
	Value string    `json:"value,omitempty"`
	All   bool      `json:"all,omitempty"`
}

// AllOf returns the margin sentinel for d.
func AllOf(d Dimension) Member {
	return Member{Dim: d, All: true}
}

// MemberOf converts a caller-supplied value into a member of d.
// Integer dimensions accept Go integers, whole floats (as decoded from JSON
// or YAML) and integer strings ("2024"); quarters also accept "Q1". ok is
// false when v cannot be a member of d, which callers treat as "matches
// nothing".
func MemberOf(d Dimension, v any) (m Member, ok bool) {
	if mm, isMember := v.(Member); isMember {
		return mm, mm.Dim == d
	}
	if !d.integral() {
		switch x := v.(type) {
		case string:
			return Member{Dim: d, Value: strings.TrimSpace(x)}, true
		case fmt.Stringer:
			return Member{Dim: d, Value: x.String()}, true
		}
		return Member{}, false
	}

	var n int64
	switch x := v.(type) {
	case int:
		n = int64(x)
	case int8:
		n = int64(x)
	case int16:
		n = int64(x)
	case int32:
		n = int64(x)
	case int64:
		n = x
	case uint:
		n = int64(x)
	case uint8:
		n = int64(x)
	case uint16:
		n = int64(x)
	case uint32:
		n = int64(x)
	case uint64:
		if x > math.MaxInt64 {
			return Member{}, false
		}
		n = int64(x)
	case float32:
		return MemberOf(d, float64(x))
	case float64:
		if x != math.Trunc(x) || x < math.MinInt64 || x >= math.MaxInt64 {
			return Member{}, false
		}
		n = int64(x)
	case string:
		s := strings.TrimSpace(x)
		if d == Quarter {
			s = strings.TrimPrefix(strings.TrimPrefix(s, "Q"), "q")
		}
		parsed, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Member{}, false
		}
		n = parsed
	default:
		return Member{}, false
	}
	return Member{Dim: d, Value: strconv.FormatInt(n, 10)}, true
}

// Native returns the member as a table cell: int for numeric dimensions,
// string otherwise. The All sentinel has no native value and returns nil.
func (m Member) Native() any {
	if m.All {
		return nil
	}
	if m.Dim.integral() {
		if n, err := strconv.Atoi(m.Value); err == nil {
			return n
		}
	}
	return m.Value
}

func (m Member) String() string {
	if m.All {
		return "*"
	}
	return m.Value
}

// Tuple is an ordered list of members, one per grouping dimension.
type Tuple []Member

// key encodes the tuple for use as a map key.
func (t Tuple) key() string {
	var b strings.Builder
	for i, m := range t {
		if i > 0 {
			b.WriteByte(0x1f)
		}
		if m.All {
			b.WriteString("\x00*")
			continue
		}
		b.WriteString(m.Value)
	}
	return b.String()
}

// Equal reports whether two tuples hold the same members.
func (t Tuple) Equal(o Tuple) bool {
	if len(t) != len(o) {
		return false
	}
	for i := range t {
		if t[i] != o[i] {
			return false
		}
	}
	return true
}

// ============================================================================
// ORDERING & LABELS
// ============================================================================

// compareMembers orders members for display: dimensions the schema marks
// numeric numerically, others by canonical schema order then lexicographically.
// All sorts after every concrete member.
func (c *config) compareMembers(a, b Member) int {
	switch {
	case a.All && b.All:
		return 0
	case a.All:
		return 1
	case b.All:
		return -1
	}
	if c.numeric[a.Dim] {
		x, errA := strconv.Atoi(a.Value)
		y, errB := strconv.Atoi(b.Value)
		if errA == nil && errB == nil {
			return x - y
		}
	}
	if order := c.order[a.Dim]; order != nil {
		ia, okA := order[a.Value]
		ib, okB := order[b.Value]
		switch {
		case okA && okB:
			return ia - ib
		case okA:
			return -1
		case okB:
			return 1
		}
	}
	return strings.Compare(a.Value, b.Value)
}

func (c *config) compareTuples(a, b Tuple) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if r := c.compareMembers(a[i], b[i]); r != 0 {
			return r
		}
	}
	return len(a) - len(b)
}

func (c *config) sortTuples(ts []Tuple) {
	sort.SliceStable(ts, func(i, j int) bool { return c.compareTuples(ts[i], ts[j]) < 0 })
}

func (c *config) sortMembers(ms []Member) {
	sort.SliceStable(ms, func(i, j int) bool { return c.compareMembers(ms[i], ms[j]) < 0 })
}

// memberLabel renders a concrete member for a header.
func (c *config) memberLabel(m Member) string {
	if m.All {
		return c.Schema.MarginLabel(string(m.Dim))
	}
	return c.Schema.FormatMember(string(m.Dim), m.Value)
}

// tupleLabels renders a tuple as hierarchical header parts. Only the first
// All of a tuple is labelled; deeper All members are empty so that
// ("2024", All) reads "2024 / Total" and (All, All) reads "Total".
func (c *config) tupleLabels(t Tuple) []string {
	out := make([]string, len(t))
	seenAll := false
	for i, m := range t {
		if m.All {
			if !seenAll {
				out[i] = c.memberLabel(m)
				seenAll = true
			}
			continue
		}
		out[i] = c.memberLabel(m)
	}
	return out
}

// tupleCells renders a tuple as row cells: native values for concrete
// members, the margin label for the first All, empty strings after it.
func (c *config) tupleCells(t Tuple) []any {
	out := make([]any, len(t))
	seenAll := false
	for i, m := range t {
		if m.All {
			if seenAll {
				out[i] = ""
			} else {
				out[i] = c.memberLabel(m)
				seenAll = true
			}
			continue
		}
		out[i] = m.Native()
	}
	return out
}

// dimensionLabel returns the display name of a dimension.
func (c *config) dimensionLabel(d Dimension) string {
	return c.Schema.Label(string(d))
}

// aggregateLabel returns the header for an aggregate column.
func (c *config) aggregateLabel(a Aggregate) string {
	name := c.Schema.Label(string(a.Measure))
	switch a.Reducer {
	case Sum:
		return name
	case Count:
		return "Count"
	case Avg:
		return "Avg " + name
	case Min:
		return "Min " + name
	case Max:
		return "Max " + name
	}
	return name
}
