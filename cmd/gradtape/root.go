package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/born-ml/gradtape/internal/autodiff"
	"github.com/born-ml/gradtape/internal/config"
	"github.com/born-ml/gradtape/internal/dataset"
	"github.com/born-ml/gradtape/internal/expr"
	"github.com/born-ml/gradtape/internal/serialization"
)

var errNoExpression = errors.New("no expression given (use --expr or the config file)")

// app carries the settings shared by every subcommand.
type app struct {
	configPath string
	logLevel   string
	expression string
	vars       string
	workers    int
	noHoist    bool
	prune      string
	tapePath   string

	cfg    config.Config
	logger *slog.Logger
	stderr io.Writer
}

func newApp(stderr io.Writer) *app {
	return &app{
		stderr: stderr,
		logger: slog.New(slog.NewTextHandler(stderr, nil)),
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "gradtape",
		Short: "Reverse-mode differentiation of scalar expressions",
		Long: `gradtape records an expression on a tape once and evaluates its value
and exact gradient at any number of points.

Expressions use + - * / ^, unary minus, parentheses, the constants pi and e,
and the functions exp log sin cos tan abs (one argument) and min max pow
(two arguments).`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "YAML run configuration")
	pf.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&a.expression, "expr", "", "Expression to differentiate")
	pf.StringVar(&a.vars, "vars", "", "Comma-separated variable names, in point order")
	pf.IntVar(&a.workers, "workers", 0, "Worker goroutines (0 = one per CPU)")
	pf.BoolVar(&a.noHoist, "no-hoist", false, "Keep constants in recording order")
	pf.StringVar(&a.prune, "prune", "", "Dead-node elimination: reachable or truncate")
	pf.StringVar(&a.tapePath, "tape", "", "Load a tape saved by 'compile' instead of compiling --expr")

	root.AddCommand(
		a.evalCmd(),
		a.inspectCmd(),
		a.compileCmd(),
		a.checkCmd(),
		a.minimizeCmd(),
		a.versionCmd(),
	)
	return root
}

// setup loads the configuration, applies explicit flags over it and
// installs the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if flags.Changed("expr") {
		cfg.Expression = a.expression
	}
	if flags.Changed("vars") {
		cfg.Variables = config.SplitList(a.vars)
	}
	if flags.Changed("workers") {
		cfg.Parallel.Workers = a.workers
	}
	if flags.Changed("no-hoist") {
		cfg.Engine.HoistConstants = !a.noHoist
	}
	if flags.Changed("prune") {
		cfg.Engine.Prune = a.prune
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, _ := config.ParseLevel(cfg.LogLevel)
	a.logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))
	a.cfg = cfg
	return nil
}

// graph compiles the configured expression, or loads --tape.
func (a *app) graph() (*autodiff.Graph, error) {
	if a.tapePath != "" {
		return a.loadTape()
	}
	if a.cfg.Expression == "" {
		return nil, errNoExpression
	}
	prog, err := expr.Compile(a.cfg.Expression, a.cfg.Variables)
	if err != nil {
		return nil, err
	}
	g, err := prog.Graph(a.cfg.EngineConfig())
	if err != nil {
		return nil, err
	}

	s := g.Stats()
	a.logger.Debug("graph constructed",
		slog.String("expr", a.cfg.Expression),
		slog.Int("nodes", s.Nodes),
		slog.Int("constants", s.Constants),
		slog.Int("operations", s.Operations),
	)
	return g, nil
}

// points reads evaluation points from a CSV file or a single --at value.
func (a *app) points(path, at string, header bool) (*dataset.Table, error) {
	switch {
	case path != "" && at != "":
		return nil, errors.New("--points and --at are mutually exclusive")
	case path != "":
		return dataset.ReadFile(path, dataset.Config{Header: header})
	case at != "" || len(a.cfg.Variables) == 0:
		p, err := dataset.ParsePoint(at)
		if err != nil {
			return nil, fmt.Errorf("--at: %w", err)
		}
		return &dataset.Table{Rows: [][]float64{p}}, nil
	default:
		return nil, errors.New("no points given (use --points or --at)")
	}
}

func (a *app) loadTape() (*autodiff.Graph, error) {
	f, err := serialization.ReadFile(a.tapePath, serialization.ReaderOptions{})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.tapePath, err)
	}
	if len(a.cfg.Variables) == 0 {
		a.cfg.Variables = f.Header.Variables
	}
	if len(a.cfg.Variables) != 0 && len(a.cfg.Variables) != f.Graph.NumVariables() {
		return nil, fmt.Errorf("%s: tape has %d variables, %d names given",
			a.tapePath, f.Graph.NumVariables(), len(a.cfg.Variables))
	}
	if a.cfg.Expression == "" {
		a.cfg.Expression = f.Header.Expression
	}

	a.logger.Debug("tape loaded",
		slog.String("path", a.tapePath),
		slog.Int("nodes", f.Graph.Len()),
		slog.Time("created_at", f.Header.CreatedAt),
	)
	return f.Graph, nil
}
