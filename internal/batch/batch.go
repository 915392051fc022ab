// Package batch evaluates one graph at many points concurrently.
//
// Each worker owns a private autodiff.Workspace, so the shared graph is only
// read. Work is split with parallel.Chunks and run under an errgroup; the
// first failing point cancels the remaining chunks.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/born-ml/gradtape/internal/autodiff"
	"github.com/born-ml/gradtape/internal/parallel"
)

// Config controls a batch run.
type Config struct {
	Parallel parallel.Config // Worker count and chunking.
	Gradient bool            // Compute gradients as well as values.
	Logger   *slog.Logger    // Defaults to slog.Default().
}

// DefaultConfig evaluates values and gradients on every CPU.
func DefaultConfig() Config {
	return Config{
		Parallel: parallel.DefaultConfig(),
		Gradient: true,
	}
}

// PointError reports the point that made a batch fail.
type PointError struct {
	Index int
	Err   error
}

func (e *PointError) Error() string {
	return fmt.Sprintf("batch: point %d: %v", e.Index, e.Err)
}

func (e *PointError) Unwrap() error {
	return e.Err
}

// Evaluate computes g at every point and returns the results in input order.
// Result.Gradient is nil unless cfg.Gradient is set.
//
// Evaluation stops at the first point with the wrong number of values
// (returned as a *PointError) or when ctx is done. Points are never
// partially reported: on error the results are discarded.
func Evaluate(ctx context.Context, g *autodiff.Graph, points [][]float64, cfg Config) ([]autodiff.Result, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()

	results := make([]autodiff.Result, len(points))
	ranges := parallel.Chunks(len(points), cfg.Parallel)

	ctx, span := startBatchSpan(ctx, len(points), len(ranges), cfg.Gradient)
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(max(cfg.Parallel.NumWorkers, 1))
	for _, r := range ranges {
		eg.Go(func() error {
			return evaluateRange(ctx, g, points, results, r, cfg.Gradient)
		})
	}

	err := eg.Wait()
	endBatchSpan(span, err)
	batchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		batchesTotal.WithLabelValues(statusError).Inc()
		logger.Warn("batch evaluation failed", slog.Int("points", len(points)), slog.Any("error", err))
		return nil, err
	}

	batchesTotal.WithLabelValues(statusOK).Inc()
	logger.Debug("batch evaluated",
		slog.Int("points", len(points)),
		slog.Int("chunks", len(ranges)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return results, nil
}

func evaluateRange(
	ctx context.Context,
	g *autodiff.Graph,
	points [][]float64,
	results []autodiff.Result,
	r parallel.Range,
	withGradient bool,
) error {
	ws := g.NewWorkspace()
	for i := r.Start; i < r.End; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		value, err := ws.Evaluate(points[i])
		if err != nil {
			pointsTotal.WithLabelValues(statusError).Inc()
			return &PointError{Index: i, Err: err}
		}
		results[i].Value = value

		if withGradient {
			grad, err := ws.Gradient()
			if err != nil {
				pointsTotal.WithLabelValues(statusError).Inc()
				return &PointError{Index: i, Err: err}
			}
			results[i].Gradient = grad
		}
		pointsTotal.WithLabelValues(statusOK).Inc()
	}
	return nil
}
