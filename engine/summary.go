package engine

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// ============================================================================
// SUMMARY — Headline figures for a fact view
// ============================================================================
// Totals, the covered period and the change in monthly sales between the
// first and the last month of the view.
// ============================================================================

// Growth compares the sales of the earliest and latest month of a view.
type Growth struct {
	EarliestPeriod string          `json:"earliestPeriod"`
	LatestPeriod   string          `json:"latestPeriod"`
	EarliestValue  decimal.Decimal `json:"earliestValue"`
	LatestValue    decimal.Decimal `json:"latestValue"`
	ChangeAmount   decimal.Decimal `json:"changeAmount"`
	ChangePercent  decimal.Decimal `json:"changePercent"` // one decimal place; zero when the earliest month sold nothing
	Direction      string          `json:"direction"`     // increased, decreased, unchanged, insufficient data
}

// Summary holds headline figures of a view.
type Summary struct {
	Records  int             `json:"records"`
	Sales    decimal.Decimal `json:"sales"`
	Quantity decimal.Decimal `json:"quantity"`
	Period   string          `json:"period"`
	Growth   Growth          `json:"growth"`
}

type yearMonth struct{ year, month int }

func (ym yearMonth) String() string { return fmt.Sprintf("%04d-%02d", ym.year, ym.month) }

// Summarize computes totals, the period covered ("2023-01 – 2025-12") and the
// growth of monthly sales from the first month to the last.
// Changes within ±0.5% count as unchanged.
func (e *Engine) Summarize(view FactView) Summary {
	s := Summary{Sales: decimal.Zero, Quantity: decimal.Zero, Records: view.Len()}
	if view.Len() == 0 {
		s.Period = "No data"
		s.Growth = Growth{Direction: "insufficient data"}
		return s
	}

	monthTotals := make(map[yearMonth]decimal.Decimal)
	for i := 0; i < view.Len(); i++ {
		r := view.Record(i)
		s.Sales = s.Sales.Add(r.Sales)
		s.Quantity = s.Quantity.Add(decimal.NewFromInt(r.Quantity))
		ym := yearMonth{r.Year, r.Month}
		monthTotals[ym] = monthTotals[ym].Add(r.Sales)
	}

	months := make([]yearMonth, 0, len(monthTotals))
	for ym := range monthTotals {
		months = append(months, ym)
	}
	sort.Slice(months, func(i, j int) bool {
		if months[i].year != months[j].year {
			return months[i].year < months[j].year
		}
		return months[i].month < months[j].month
	})

	earliest, latest := months[0], months[len(months)-1]
	s.Period = earliest.String()
	if len(months) > 1 {
		s.Period = fmt.Sprintf("%s – %s", earliest, latest)
	}

	g := Growth{
		EarliestPeriod: earliest.String(),
		LatestPeriod:   latest.String(),
		EarliestValue:  monthTotals[earliest],
		LatestValue:    monthTotals[latest],
		ChangePercent:  decimal.Zero,
	}
	g.ChangeAmount = g.LatestValue.Sub(g.EarliestValue)

	switch {
	case len(months) < 2:
		g.Direction = "insufficient data"
	default:
		if !g.EarliestValue.IsZero() {
			g.ChangePercent = g.ChangeAmount.Div(g.EarliestValue).Mul(decimal.NewFromInt(100)).Round(1)
		}
		half := decimal.RequireFromString("0.5")
		switch {
		case g.ChangePercent.GreaterThan(half):
			g.Direction = "increased"
		case g.ChangePercent.LessThan(half.Neg()):
			g.Direction = "decreased"
		default:
			g.Direction = "unchanged"
		}
	}
	s.Growth = g
	return s
}

// Table renders the summary as a two-column Metric / Value table.
func (s Summary) Table() *ResultTable {
	return &ResultTable{
		Title:   "Summary",
		Headers: []Header{{"Metric"}, {"Value"}},
		Rows: []Row{
			{"Records", int64(s.Records)},
			{"Period", s.Period},
			{"Sales", s.Sales},
			{"Quantity", s.Quantity.IntPart()},
			{"First month sales", s.Growth.EarliestValue},
			{"Last month sales", s.Growth.LatestValue},
			{"Change", s.Growth.ChangeAmount},
			{"Change %", s.Growth.ChangePercent},
			{"Direction", s.Growth.Direction},
		},
	}
}
