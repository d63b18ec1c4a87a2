package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spektr-org/olap/engine"
	"github.com/spektr-org/olap/helpers"
	"github.com/spektr-org/olap/render"
)

// ============================================================================
// COMMANDS — One per cube operation
// ============================================================================

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Print the fact table",
	Long:  "Prints every fact record. With --format csv the output can be read back with --facts.",
	Args:  cobra.NoArgs,
	RunE: run(func(s *session, _ []string) error {
		if s.format == render.CSV {
			return helpers.WriteFactsCSV(s.out, s.records)
		}
		t := s.eng.ListTable(s.facts)
		t.Title = "Dataset"
		return s.write(t)
	}),
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Totals, covered period and first-to-last month sales growth",
	Args:  cobra.NoArgs,
	RunE: run(func(s *session, _ []string) error {
		return s.write(s.eng.Summarize(s.facts).Table())
	}),
}

var (
	cubeRows    string
	cubeCols    string
	cubeMeasure string
)

var cubeCmd = &cobra.Command{
	Use:   "cube",
	Short: "Build a cube with subtotals and a grand total",
	Long: `Builds a cube. Without flags this is the base cube: product × region rows,
year × quarter columns, summing sales, with margins at every level.`,
	Args: cobra.NoArgs,
	RunE: run(func(s *session, _ []string) error {
		spec, err := cubeSpecFromFlags(s)
		if err != nil {
			return err
		}
		c, err := s.eng.BuildCube(s.facts, spec)
		if err != nil {
			return err
		}
		return s.write(c.Table())
	}),
}

func cubeSpecFromFlags(s *session) (engine.CubeSpec, error) {
	spec := engine.BaseCubeSpec()
	var err error
	if cubeRows != "" {
		if spec.Rows, err = parseDimensions(s.eng, cubeRows); err != nil {
			return spec, err
		}
	}
	if cubeCols != "" {
		if spec.Cols, err = parseDimensions(s.eng, cubeCols); err != nil {
			return spec, err
		}
	}
	if cubeMeasure != "" {
		spec.Measure = engine.Measure(strings.ToLower(cubeMeasure))
	}
	return spec, nil
}

var faceYear int

var faceCmd = &cobra.Command{
	Use:   "face",
	Short: "Show the base cube restricted to one year",
	Args:  cobra.NoArgs,
	RunE: run(func(s *session, _ []string) error {
		t, err := s.eng.BuildBaseCube(s.facts).Face(faceYear)
		if err != nil {
			return err
		}
		return s.write(t)
	}),
}

var (
	sliceDim   string
	sliceValue string
)

var sliceCmd = &cobra.Command{
	Use:   "slice",
	Short: "List the records whose dimension equals a value",
	Example: `  olap slice --dim year --value 2024
  olap slice --dim región --value Norte`,
	Args: cobra.NoArgs,
	RunE: run(func(s *session, _ []string) error {
		d, err := s.eng.ParseDimension(sliceDim)
		if err != nil {
			return err
		}
		view, err := s.eng.Slice(s.facts, d, sliceValue)
		if err != nil {
			return err
		}
		t := s.eng.ListTable(view)
		t.Title = fmt.Sprintf("Slice %s = %s", d, sliceValue)
		return s.write(t)
	}),
}

var diceWhere []string

var diceCmd = &cobra.Command{
	Use:   "dice",
	Short: "List the records matching a set of allowed values per dimension",
	Long: `Each --where dim=v1,v2 allows the listed values for one dimension.
Dimensions combine with AND, values within a dimension with OR.`,
	Example: `  olap dice --where year=2024,2025 --where region=Norte,Sur --where product=A,B`,
	Args:    cobra.NoArgs,
	RunE: run(func(s *session, _ []string) error {
		preds, err := parsePredicates(s.eng, diceWhere)
		if err != nil {
			return err
		}
		view, err := s.eng.Dice(s.facts, preds)
		if err != nil {
			return err
		}
		t := s.eng.ListTable(view)
		t.Title = "Dice " + strings.Join(diceWhere, " ")
		return s.write(t)
	}),
}

var (
	rollupBy   string
	rollupAggs []string
)

var rollupCmd = &cobra.Command{
	Use:   "rollup",
	Short: "Aggregate to a coarser grain",
	Long: `Groups facts by the --by dimensions. "year" and "year-quarter" are the
standard roll-ups (sales and quantity); any comma-separated dimension list
works, with --agg selecting the aggregates (sum:sales, avg:quantity, count...).`,
	Example: `  olap rollup --by year-quarter
  olap rollup --by product,channel --agg sum:sales --agg avg:sales --agg count`,
	Args: cobra.NoArgs,
	RunE: run(func(s *session, _ []string) error {
		if len(rollupAggs) == 0 {
			switch strings.ToLower(rollupBy) {
			case "year":
				return s.write(s.eng.RollupByYear(s.facts))
			case "year-quarter":
				return s.write(s.eng.RollupByYearQuarter(s.facts))
			}
		}

		dims, err := parseDimensions(s.eng, strings.ReplaceAll(rollupBy, "-", ","))
		if err != nil {
			return err
		}
		aggs := []engine.Aggregate{engine.SumOf(engine.Sales), engine.SumOf(engine.Quantity)}
		if len(rollupAggs) > 0 {
			aggs = aggs[:0]
			for _, a := range rollupAggs {
				agg, err := engine.ParseAggregate(a)
				if err != nil {
					return err
				}
				aggs = append(aggs, agg)
			}
		}
		t, err := s.eng.Rollup(s.facts, dims, aggs...)
		if err != nil {
			return err
		}
		return s.write(t)
	}),
}

var (
	drillProduct string
	drillRegion  string
)

var drilldownCmd = &cobra.Command{
	Use:   "drilldown",
	Short: "Year, quarter and month detail for one product and region",
	Args:  cobra.NoArgs,
	RunE: run(func(s *session, _ []string) error {
		return s.write(s.eng.Drilldown(s.facts, drillProduct, drillRegion))
	}),
}

var (
	pivotRows    string
	pivotCols    string
	pivotMeasure string
)

var pivotCmd = &cobra.Command{
	Use:   "pivot",
	Short: "Cross-tabulate sales, years as rows and regions as columns",
	Args:  cobra.NoArgs,
	RunE: run(func(s *session, _ []string) error {
		if pivotRows == "" && pivotCols == "" && pivotMeasure == "" {
			return s.write(s.eng.PivotYearByRegion(s.facts))
		}

		row, err := s.eng.ParseDimension(valueOr(pivotRows, "year"))
		if err != nil {
			return err
		}
		col, err := s.eng.ParseDimension(valueOr(pivotCols, "region"))
		if err != nil {
			return err
		}
		agg, err := engine.ParseAggregate(valueOr(pivotMeasure, "sales"))
		if err != nil {
			return err
		}
		g, err := s.eng.GroupBy(s.facts, []engine.Dimension{row, col}, agg)
		if err != nil {
			return err
		}
		t, err := g.Pivot(0)
		if err != nil {
			return err
		}
		t.Title = fmt.Sprintf("Pivot %s / %s", row, col)
		return s.write(t)
	}),
}

var multiCmd = &cobra.Command{
	Use:   "multi",
	Short: "Sales and quantity per product, region and year",
	Args:  cobra.NoArgs,
	RunE: run(func(s *session, _ []string) error {
		return s.write(s.eng.BuildMultiMeasurePivot(s.facts))
	}),
}

var (
	cellYear    int
	cellQuarter int
	cellProduct string
	cellRegion  string
)

var cellCmd = &cobra.Command{
	Use:   "cell",
	Short: "List the transactions behind one base cube cell",
	Args:  cobra.NoArgs,
	RunE: run(func(s *session, _ []string) error {
		t := s.eng.ListTable(s.eng.CellDetail(s.facts, cellYear, cellQuarter, cellProduct, cellRegion))
		t.Title = fmt.Sprintf("Cell %d Q%d %s %s", cellYear, cellQuarter, cellProduct, cellRegion)
		return s.write(t)
	}),
}

func init() {
	cubeCmd.Flags().StringVar(&cubeRows, "rows", "", "Comma-separated row dimensions (default product,region)")
	cubeCmd.Flags().StringVar(&cubeCols, "cols", "", "Comma-separated column dimensions (default year,quarter)")
	cubeCmd.Flags().StringVar(&cubeMeasure, "measure", "", "Measure to sum (default sales)")

	faceCmd.Flags().IntVar(&faceYear, "year", 2024, "Year to fix")

	sliceCmd.Flags().StringVar(&sliceDim, "dim", "year", "Dimension to fix")
	sliceCmd.Flags().StringVar(&sliceValue, "value", "2024", "Member value")

	diceCmd.Flags().StringArrayVar(&diceWhere, "where", nil, "Predicate dim=v1,v2 (repeatable)")

	rollupCmd.Flags().StringVar(&rollupBy, "by", "year", "year, year-quarter, or comma-separated dimensions")
	rollupCmd.Flags().StringArrayVar(&rollupAggs, "agg", nil, "Aggregate reducer:measure (repeatable)")

	drilldownCmd.Flags().StringVar(&drillProduct, "product", "A", "Product to fix")
	drilldownCmd.Flags().StringVar(&drillRegion, "region", "Norte", "Region to fix")

	pivotCmd.Flags().StringVar(&pivotRows, "rows", "", "Row dimension (default year)")
	pivotCmd.Flags().StringVar(&pivotCols, "cols", "", "Column dimension (default region)")
	pivotCmd.Flags().StringVar(&pivotMeasure, "agg", "", "Aggregate reducer:measure (default sum:sales)")

	cellCmd.Flags().IntVar(&cellYear, "year", 2024, "Year")
	cellCmd.Flags().IntVar(&cellQuarter, "quarter", 1, "Quarter (1-4)")
	cellCmd.Flags().StringVar(&cellProduct, "product", "A", "Product")
	cellCmd.Flags().StringVar(&cellRegion, "region", "Norte", "Region")
}

// ============================================================================
// FLAG PARSING
// ============================================================================

func parseDimensions(eng *engine.Engine, list string) ([]engine.Dimension, error) {
	var dims []engine.Dimension
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		d, err := eng.ParseDimension(name)
		if err != nil {
			return nil, err
		}
		dims = append(dims, d)
	}
	return dims, nil
}

// parsePredicates turns ["year=2024,2025", "region=Norte"] into Predicates.
// Repeating a dimension widens its allowed set.
func parsePredicates(eng *engine.Engine, where []string) (engine.Predicates, error) {
	preds := engine.Predicates{}
	for _, w := range where {
		name, values, ok := strings.Cut(w, "=")
		if !ok {
			return nil, fmt.Errorf("invalid predicate %q: want dim=v1,v2", w)
		}
		d, err := eng.ParseDimension(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		if _, seen := preds[d]; !seen {
			preds[d] = []any{}
		}
		for _, v := range strings.Split(values, ",") {
			if v = strings.TrimSpace(v); v != "" {
				preds[d] = append(preds[d], v)
			}
		}
	}
	return preds, nil
}

func valueOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
