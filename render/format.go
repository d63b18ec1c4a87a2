package render

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ============================================================================
// NUMBER FORMATTING
// ============================================================================

// FormatAmount formats a decimal with thousands separators and two places.
// Whole amounts keep the two places: 1234 → "1,234.00".
func FormatAmount(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	intPart, decPart, _ := strings.Cut(s, ".")

	out := groupThousands(intPart) + "." + decPart
	if d.Sign() < 0 {
		out = "-" + out
	}
	return out
}

// FormatInt formats an integer with thousands separators.
func FormatInt(n int64) string {
	if n < 0 {
		return "-" + FormatInt(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%s,%03d", FormatInt(n/1000), n%1000)
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var parts []string
	for len(digits) > 3 {
		parts = append([]string{digits[len(digits)-3:]}, parts...)
		digits = digits[:len(digits)-3]
	}
	parts = append([]string{digits}, parts...)
	return strings.Join(parts, ",")
}

// plain renders a cell for machine formats (CSV): no grouping, decimals
// exact.
func plain(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case decimal.Decimal:
		return x.String()
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

// pretty renders a cell for humans. Years and months stay ungrouped.
func pretty(v any) string {
	switch x := v.(type) {
	case decimal.Decimal:
		return FormatAmount(x)
	case int64:
		return FormatInt(x)
	default:
		return plain(v)
	}
}
