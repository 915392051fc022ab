// Package config loads gradtape run settings from YAML files and the
// environment.
//
// Precedence, lowest first: DefaultConfig, the YAML file, GRADTAPE_*
// environment variables, then command-line flags applied by the caller.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/born-ml/gradtape/internal/autodiff"
	"github.com/born-ml/gradtape/internal/parallel"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("config: invalid")

// Config is the full run configuration.
type Config struct {
	// Expression is the function to differentiate, e.g. "x*y + sin(x)".
	Expression string `yaml:"expression"`

	// Variables names the inputs in point order.
	Variables []string `yaml:"variables"`

	Engine   EngineConfig   `yaml:"engine"`
	Parallel ParallelConfig `yaml:"parallel"`
	Optimize OptimizeConfig `yaml:"optimize"`
	Check    CheckConfig    `yaml:"check"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// EngineConfig selects graph construction options.
type EngineConfig struct {
	HoistConstants bool   `yaml:"hoist_constants"`
	Prune          string `yaml:"prune"` // reachable or truncate
}

// ParallelConfig sizes batch evaluation.
type ParallelConfig struct {
	Workers  int `yaml:"workers"` // 0 means one per CPU.
	MinChunk int `yaml:"min_chunk"`
}

// OptimizeConfig drives the minimize command.
type OptimizeConfig struct {
	Method    string  `yaml:"method"` // adam or sgd
	LR        float64 `yaml:"lr"`
	Momentum  float64 `yaml:"momentum"`
	MaxIter   int     `yaml:"max_iter"`
	Tolerance float64 `yaml:"tolerance"`
}

// CheckConfig drives the finite-difference gradient check.
type CheckConfig struct {
	Epsilon   float64 `yaml:"epsilon"`
	Tolerance float64 `yaml:"tolerance"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Engine: EngineConfig{
			HoistConstants: true,
			Prune:          autodiff.PruneReachable.String(),
		},
		Parallel: ParallelConfig{
			MinChunk: parallel.DefaultConfig().MinChunkSize,
		},
		Optimize: OptimizeConfig{
			Method:    "adam",
			LR:        0.01,
			MaxIter:   1000,
			Tolerance: 1e-8,
		},
		Check: CheckConfig{
			Epsilon:   1e-6,
			Tolerance: 1e-3,
		},
		LogLevel: "info",
	}
}

// Load returns DefaultConfig overlaid with the YAML file at path (skipped
// when path is empty) and the environment. The result is not validated.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: %w", err)
		}
		if err := Parse(data, &cfg); err != nil {
			return cfg, fmt.Errorf("%s: %w", path, err)
		}
	}
	applyEnv(&cfg, os.Getenv)
	return cfg, nil
}

// Parse decodes YAML into cfg. Fields missing from data keep their
// current values; unknown fields are an error.
func Parse(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config, getenv func(string) string) {
	if v := getenv("GRADTAPE_EXPR"); v != "" {
		cfg.Expression = v
	}
	if v := getenv("GRADTAPE_VARS"); v != "" {
		cfg.Variables = SplitList(v)
	}
	if v := getenv("GRADTAPE_PRUNE"); v != "" {
		cfg.Engine.Prune = v
	}
	if v := getenv("GRADTAPE_HOIST"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Engine.HoistConstants = b
		}
	}
	if v := getenv("GRADTAPE_WORKERS"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Parallel.Workers = i
		}
	}
	if v := getenv("GRADTAPE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

// Validate reports the first inconsistent setting.
func (c Config) Validate() error {
	if _, err := autodiff.ParsePruneMode(c.Engine.Prune); err != nil {
		return fmt.Errorf("%w: engine.prune: %v", ErrInvalid, err)
	}
	if c.Parallel.Workers < 0 {
		return fmt.Errorf("%w: parallel.workers must be >= 0", ErrInvalid)
	}
	if c.Parallel.MinChunk < 1 {
		return fmt.Errorf("%w: parallel.min_chunk must be >= 1", ErrInvalid)
	}
	switch c.Optimize.Method {
	case "adam", "sgd":
	default:
		return fmt.Errorf("%w: optimize.method %q (want adam or sgd)", ErrInvalid, c.Optimize.Method)
	}
	if c.Optimize.LR <= 0 {
		return fmt.Errorf("%w: optimize.lr must be > 0", ErrInvalid)
	}
	if c.Optimize.MaxIter < 1 {
		return fmt.Errorf("%w: optimize.max_iter must be >= 1", ErrInvalid)
	}
	if c.Check.Epsilon <= 0 || c.Check.Tolerance <= 0 {
		return fmt.Errorf("%w: check.epsilon and check.tolerance must be > 0", ErrInvalid)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	seen := make(map[string]bool, len(c.Variables))
	for _, v := range c.Variables {
		if seen[v] {
			return fmt.Errorf("%w: variable %q listed twice", ErrInvalid, v)
		}
		seen[v] = true
	}
	return nil
}

// EngineConfig converts the engine section. Call Validate first.
func (c Config) EngineConfig() autodiff.Config {
	mode, _ := autodiff.ParsePruneMode(c.Engine.Prune)
	return autodiff.Config{Prune: mode, HoistConstants: c.Engine.HoistConstants}
}

// ParallelConfig converts the parallel section.
func (c Config) ParallelConfig() parallel.Config {
	workers := c.Parallel.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}
	return parallel.Config{
		Enabled:      workers > 1,
		NumWorkers:   workers,
		MinChunkSize: c.Parallel.MinChunk,
	}
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log level %q: %w", s, err)
	}
	return l, nil
}

// SplitList splits "x, y,z" into trimmed, non-empty names.
func SplitList(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
