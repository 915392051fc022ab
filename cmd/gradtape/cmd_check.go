package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/born-ml/gradtape/internal/gradcheck"
)

var errGradientMismatch = errors.New("tape and numerical gradients disagree")

func (a *app) checkCmd() *cobra.Command {
	var (
		pointsPath string
		at         string
		header     bool
	)
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Compare tape gradients with finite differences",
		Long: `Compare the reverse-mode gradient with a central finite-difference estimate
at every point. Exits non-zero if any component differs by more than the
relative tolerance.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			if flags.Changed("eps") {
				a.cfg.Check.Epsilon, _ = flags.GetFloat64("eps")
			}
			if flags.Changed("tol") {
				a.cfg.Check.Tolerance, _ = flags.GetFloat64("tol")
			}

			g, err := a.graph()
			if err != nil {
				return err
			}
			tbl, err := a.points(pointsPath, at, header)
			if err != nil {
				return err
			}

			cfg := gradcheck.Config{
				Epsilon:   a.cfg.Check.Epsilon,
				Tolerance: a.cfg.Check.Tolerance,
				Parallel:  a.cfg.ParallelConfig(),
			}
			failed := 0
			out := cmd.OutOrStdout()
			for _, p := range tbl.Rows {
				r, err := gradcheck.Check(g, p, cfg)
				if err != nil {
					return fmt.Errorf("point %s: %w", formatPoint(p), err)
				}
				fmt.Fprintf(out, "%s: %s\n", formatPoint(p), r)
				if !r.OK {
					failed++
				}
			}

			a.logger.Info("gradient check finished",
				slog.Int("points", len(tbl.Rows)),
				slog.Int("failed", failed),
			)
			if failed > 0 {
				return fmt.Errorf("%w at %d of %d points", errGradientMismatch, failed, len(tbl.Rows))
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&pointsPath, "points", "", "CSV file with one point per row")
	f.StringVar(&at, "at", "", "Single comma-separated point")
	f.BoolVar(&header, "header", false, "The CSV file starts with a header line")
	f.Float64("eps", 1e-6, "Relative finite-difference step")
	f.Float64("tol", 1e-3, "Maximum relative error")
	return cmd
}
