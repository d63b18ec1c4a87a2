package main

import (
	"github.com/spf13/cobra"

	"github.com/spektr-org/olap/engine"
	"github.com/spektr-org/olap/render"
)

// operation documents one public entry point of the library.
type operation struct {
	Group     string
	Name      string
	Signature string
	Doc       string
}

// operations is kept in sync with the exported API by hand; grouped and
// sorted by name within each group.
var operations = []operation{
	{"Data generation", "generator.Generate", "(cfg generator.Config) ([]engine.Record, error)",
		"Deterministic synthetic sales facts for a seed; quarter derived from month."},
	{"Data generation", "helpers.ParseFactsCSV", "(data []byte, sch schema.Config) ([]engine.Record, error)",
		"Fact records from CSV; headers resolved through schema names and aliases."},

	{"Cube construction", "Engine.BuildBaseCube", "(view FactView) *Cube",
		"Product × Region by Year × Quarter sales cube with every subtotal and the grand total."},
	{"Cube construction", "Engine.BuildCube", "(view FactView, spec CubeSpec) (*Cube, error)",
		"Cube over any row and column dimensions with margins at every level."},
	{"Cube construction", "Engine.Load", "(records []Record) (*FactTable, error)",
		"Validates records and builds the immutable fact table."},

	{"OLAP operations", "Cube.Face", "(value any) (*ResultTable, error)",
		"The cube with its first column dimension fixed to one member."},
	{"OLAP operations", "Engine.BuildMultiMeasurePivot", "(view FactView) *ResultTable",
		"Sales and quantity per product, region and year."},
	{"OLAP operations", "Engine.CellDetail", "(view FactView, year, quarter int, product, region string) FactView",
		"The transactions behind one base cube cell."},
	{"OLAP operations", "Engine.Dice", "(view FactView, preds Predicates) (FactView, error)",
		"Records allowed by every predicate; values of one dimension are alternatives."},
	{"OLAP operations", "Engine.Drilldown", "(view FactView, product, region string) *ResultTable",
		"Year, quarter and month detail beneath one product and region."},
	{"OLAP operations", "Engine.GroupBy", "(view FactView, dims []Dimension, aggs ...Aggregate) (*Grouping, error)",
		"Groups records by dimensions and reduces each group."},
	{"OLAP operations", "Engine.PivotYearByRegion", "(view FactView) *ResultTable",
		"Sales with years as rows and regions as columns."},
	{"OLAP operations", "Engine.Rollup", "(view FactView, dims []Dimension, aggs ...Aggregate) (*ResultTable, error)",
		"Aggregation to a coarser grain."},
	{"OLAP operations", "Engine.RollupByYear", "(view FactView) *ResultTable",
		"Sales and quantity per year."},
	{"OLAP operations", "Engine.RollupByYearQuarter", "(view FactView) *ResultTable",
		"Sales and quantity per year and quarter."},
	{"OLAP operations", "Engine.Slice", "(view FactView, d Dimension, value any) (FactView, error)",
		"Records whose member on one dimension equals a value."},
	{"OLAP operations", "Engine.Summarize", "(view FactView) Summary",
		"Totals, covered period and the change from the first to the last month."},
	{"OLAP operations", "Grouping.Pivot", "(agg int) (*ResultTable, error)",
		"Reshapes a two-key grouping into a matrix."},
	{"OLAP operations", "Shape", "(t *ResultTable) *ResultTable",
		"Flattens hierarchical headers and fills missing cells with zero."},
}

func operationsTable() *engine.ResultTable {
	t := &engine.ResultTable{
		Title:   "Operations",
		Headers: []engine.Header{{"Group"}, {"Name"}, {"Signature"}, {"Description"}},
	}
	for _, op := range operations {
		t.Rows = append(t.Rows, engine.Row{op.Group, op.Name, op.Signature, op.Doc})
	}
	return t
}

// operationsCmd needs no facts, so it skips session setup.
var operationsCmd = &cobra.Command{
	Use:   "operations",
	Short: "List the library operations with their signatures",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		f, err := render.ParseFormat(format)
		if err != nil {
			return err
		}
		return render.Write(cmd.OutOrStdout(), f, operationsTable())
	},
}
