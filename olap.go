// Package olap is an in-memory OLAP aggregation engine over a sales fact
// table.
//
// Usage:
//
//	import "github.com/spektr-org/olap/engine"
//
//	eng, err := engine.New(engine.WithLogger(logger))
//	facts, err := eng.Load(records)
//
//	cube := eng.BuildBaseCube(facts)       // product × region by year × quarter, with margins
//	face, err := cube.Face(2024)
//	view, err := eng.Dice(facts, engine.Predicates{
//	    engine.Year:   {2024, 2025},
//	    engine.Region: {"Norte", "Sur"},
//	})
//	table := eng.ListTable(view)
//
// Every operation returns a fresh value and never mutates the fact table.
// The render package writes result tables as JSON, CSV or aligned text; the
// generator package produces a deterministic synthetic dataset; cmd/olap is
// the command-line shell.
package olap
