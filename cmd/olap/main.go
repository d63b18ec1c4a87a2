package main

import (
	"fmt"
	"io"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/spektr-org/olap/config"
	"github.com/spektr-org/olap/engine"
	"github.com/spektr-org/olap/generator"
	"github.com/spektr-org/olap/helpers"
	"github.com/spektr-org/olap/render"
)

// ============================================================================
// OLAP CLI — Cube operations over a sales fact table
// ============================================================================

const version = "0.3.0"

var (
	configPath string
	format     string
	outFile    string
	verbose    int
	seed       uint64
	factsPath  string
)

var rootCmd = &cobra.Command{
	Use:   "olap",
	Short: "OLAP aggregation over a sales fact table",
	Long: `olap - Cube, slice, dice, roll-up, drill-down and pivot over sales facts.

Facts come from the built-in synthetic generator (years 2023-2025, products A-D,
regions Norte/Sur/Este/Oeste, channels Online/Tienda) or from a CSV file given
with --facts. Every command prints one or more result tables.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Path to YAML or JSON config file (can also use OLAP_CONFIG env var)")
	pf.StringVarP(&format, "format", "f", "", "Output format: json, csv, text (default from config, else text)")
	pf.StringVarP(&outFile, "out", "o", "", "Write output to file instead of stdout")
	pf.CountVarP(&verbose, "verbose", "v", "Increase log verbosity (repeatable)")
	pf.Uint64Var(&seed, "seed", 0, "Generator seed (overrides config)")
	pf.StringVar(&factsPath, "facts", "", "Load facts from a CSV file instead of generating them")

	rootCmd.AddCommand(
		generateCmd, cubeCmd, faceCmd, sliceCmd, diceCmd, rollupCmd,
		drilldownCmd, pivotCmd, multiCmd, cellCmd, summaryCmd, reportCmd, operationsCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// ============================================================================
// SESSION — Config, logger, engine and facts shared by every command
// ============================================================================

type session struct {
	cfg    *config.Config
	log    logr.Logger
	eng    *engine.Engine
	facts  *engine.FactTable
	format render.Format
	out    io.Writer

	records []engine.Record
	closers []func() error
}

// newSession resolves configuration (file, then flags), builds the logger and
// the engine, and loads the fact table.
func newSession(cmd *cobra.Command) (*session, error) {
	s := &session{out: cmd.OutOrStdout()}

	path := configPath
	if path == "" {
		path = os.Getenv("OLAP_CONFIG")
	}
	if path != "" {
		cfg, err := config.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		s.cfg = cfg
	} else {
		s.cfg = config.Default()
	}
	if cmd.Flags().Changed("seed") {
		s.cfg.Generator.Seed = seed
	}
	if format != "" {
		s.cfg.Output.Format = format
	}

	f, err := render.ParseFormat(s.cfg.Output.Format)
	if err != nil {
		return nil, err
	}
	s.format = f

	zl, err := newZapLogger(verbose)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	s.closers = append(s.closers, func() error { _ = zl.Sync(); return nil })
	s.log = zapr.NewLogger(zl).WithName("olap")

	s.eng, err = engine.New(append(s.cfg.EngineOptions(), engine.WithLogger(s.log))...)
	if err != nil {
		return nil, err
	}

	if err := s.loadFacts(); err != nil {
		return nil, err
	}

	if outFile != "" {
		fh, err := os.Create(outFile)
		if err != nil {
			return nil, fmt.Errorf("failed to create output file: %w", err)
		}
		s.out = fh
		s.closers = append(s.closers, fh.Close)
	}
	return s, nil
}

func (s *session) loadFacts() error {
	var (
		records []engine.Record
		err     error
	)
	if factsPath != "" {
		data, rerr := os.ReadFile(factsPath)
		if rerr != nil {
			return fmt.Errorf("failed to read facts file: %w", rerr)
		}
		records, err = helpers.ParseFactsCSV(data, s.cfg.EffectiveSchema())
		if err != nil {
			return fmt.Errorf("failed to parse facts CSV: %w", err)
		}
		s.log.Info("loaded facts", "file", factsPath, "records", len(records))
	} else {
		records, err = generator.Generate(s.cfg.Generator)
		if err != nil {
			return err
		}
		s.log.V(1).Info("generated facts", "seed", s.cfg.Generator.Seed, "records", len(records))
	}

	s.facts, err = s.eng.Load(records)
	if err != nil {
		return err
	}
	s.records = engine.Records(s.facts)
	return nil
}

// write renders tables in the session format.
func (s *session) write(tables ...*engine.ResultTable) error {
	if err := render.Write(s.out, s.format, tables...); err != nil {
		return err
	}
	if outFile != "" {
		s.log.Info("output written", "file", outFile, "format", string(s.format), "tables", len(tables))
	}
	return nil
}

func (s *session) Close() error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// run wraps a command body with session setup and teardown.
func run(body func(s *session, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		err = body(s, args)
		if cerr := s.Close(); err == nil {
			err = cerr
		}
		return err
	}
}

// newZapLogger logs to stderr. Each -v lowers the level by one so that logr
// V(n) messages become visible.
func newZapLogger(v int) (*zap.Logger, error) {
	zc := zap.NewDevelopmentConfig()
	zc.Level = zap.NewAtomicLevelAt(zapcore.Level(-v))
	zc.DisableStacktrace = true
	if v == 0 {
		zc.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}
	return zc.Build()
}
