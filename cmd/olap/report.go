package main

import (
	"github.com/spf13/cobra"

	"github.com/spektr-org/olap/engine"
)

// ============================================================================
// REPORT — Every standard view of the cube in one run
// ============================================================================

var reportNoDataset bool

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the dataset and every standard cube view",
	Long: `Prints, in order: the raw dataset, the 2024 face of the base cube, a dice
section (years 2024-2025, regions Norte/Sur, products A/B), the full cube,
the multi-measure pivot, the 2024 slice, the A/Norte drill-down, the yearly
and year × quarter roll-ups, the year × region pivot and the detail of the
(2024, Q1, A, Norte) cell.`,
	Args: cobra.NoArgs,
	RunE: run(func(s *session, _ []string) error {
		tables, err := buildReport(s.eng, s.facts)
		if err != nil {
			return err
		}
		if reportNoDataset {
			tables = tables[1:]
		}
		return s.write(tables...)
	}),
}

func init() {
	reportCmd.Flags().BoolVar(&reportNoDataset, "no-dataset", false, "Omit the raw dataset table")
}

func describe(t *engine.ResultTable, title, description string) *engine.ResultTable {
	t.Title = title
	t.Description = description
	return t
}

func buildReport(eng *engine.Engine, facts engine.FactView) ([]*engine.ResultTable, error) {
	cube := eng.BuildBaseCube(facts)
	face, err := cube.Face(2024)
	if err != nil {
		return nil, err
	}

	section, err := eng.Dice(facts, engine.Predicates{
		engine.Year:    {2024, 2025},
		engine.Region:  {"Norte", "Sur"},
		engine.Product: {"A", "B"},
	})
	if err != nil {
		return nil, err
	}
	slice, err := eng.Slice(facts, engine.Year, 2024)
	if err != nil {
		return nil, err
	}
	// The cell lies inside the dice section, so detailing the section or the
	// whole table yields the same records.
	cell := eng.CellDetail(section, 2024, 1, "A", "Norte")

	return []*engine.ResultTable{
		describe(eng.ListTable(facts), "Raw data",
			"Generated dataset with sales and quantity by product, region, channel and time."),
		describe(face, "Cube face: 2024 sales by quarter",
			"Two-dimensional view of the cube fixing year 2024, sales by product and region."),
		describe(eng.ListTable(section), "Cube section (dice)",
			"Combined filter on years 2024-2025, regions Norte/Sur and products A/B."),
		describe(cube.Table(), "Full cube",
			"Product × Region × Year/Quarter OLAP table with totals included."),
		describe(eng.BuildMultiMeasurePivot(facts), "Multi-measure pivot",
			"Sum of sales and quantity by product, region and year."),
		describe(eng.ListTable(slice), "Slice 2024",
			"Original records filtered to year 2024."),
		describe(eng.Drilldown(facts, "A", "Norte"), "Drill-down Product A / Region Norte",
			"Hierarchical detail by year, quarter and month for product A in region Norte."),
		describe(eng.RollupByYear(facts), "Roll-up by year",
			"Yearly aggregation of sales."),
		describe(eng.RollupByYearQuarter(facts), "Roll-up year × quarter",
			"Sales distribution by year and quarter."),
		describe(eng.PivotYearByRegion(facts), "Pivot Year × Region",
			"Sales matrix with regions as columns."),
		describe(eng.ListTable(cell), "Cell detail",
			"Transactions behind the cell (product A, region Norte, year 2024, quarter 1)."),
	}, nil
}
