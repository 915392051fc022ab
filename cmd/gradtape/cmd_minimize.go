package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/born-ml/gradtape/internal/dataset"
	"github.com/born-ml/gradtape/internal/optim"
)

func (a *app) minimizeCmd() *cobra.Command {
	var start string
	cmd := &cobra.Command{
		Use:   "minimize",
		Short: "Minimize the expression with SGD or Adam",
		Long: `Run a first-order optimizer from --start until the gradient norm falls
below --tol or --max-iter steps have been taken.

Example:
  gradtape --expr "(x-3)^2 + (y+1)^2" --vars x,y minimize --start 0,0 --method sgd --lr 0.1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			oc := &a.cfg.Optimize
			flags := cmd.Flags()
			if flags.Changed("method") {
				oc.Method, _ = flags.GetString("method")
			}
			if flags.Changed("lr") {
				oc.LR, _ = flags.GetFloat64("lr")
			}
			if flags.Changed("momentum") {
				oc.Momentum, _ = flags.GetFloat64("momentum")
			}
			if flags.Changed("max-iter") {
				oc.MaxIter, _ = flags.GetInt("max-iter")
			}
			if flags.Changed("tol") {
				oc.Tolerance, _ = flags.GetFloat64("tol")
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}

			g, err := a.graph()
			if err != nil {
				return err
			}
			x0 := make([]float64, g.NumVariables())
			if start != "" {
				if x0, err = dataset.ParsePoint(start); err != nil {
					return fmt.Errorf("--start: %w", err)
				}
			}
			opt, err := optim.New(oc.Method, oc.LR, oc.Momentum)
			if err != nil {
				return err
			}

			res, err := optim.Minimize(cmd.Context(), g, x0, opt, optim.MinimizeConfig{
				MaxIter:   oc.MaxIter,
				Tolerance: oc.Tolerance,
				LogEvery:  100,
				Logger:    a.logger,
			})
			if err != nil && !errors.Is(err, optim.ErrDiverged) {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "value: %s\n", formatFloat(res.Value))
			for i, v := range res.X {
				name := fmt.Sprintf("x%d", i)
				if i < len(a.cfg.Variables) {
					name = a.cfg.Variables[i]
				}
				fmt.Fprintf(out, "%s: %s\n", name, formatFloat(v))
			}
			fmt.Fprintf(out, "iterations: %d\nconverged: %t\n", res.Iter, res.Converged)

			if err != nil {
				return err
			}
			if !res.Converged {
				a.logger.Warn("minimize stopped before convergence",
					slog.Int("max_iter", oc.MaxIter),
					slog.Float64("tolerance", oc.Tolerance),
				)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&start, "start", "", "Comma-separated starting point (default: all zeros)")
	f.String("method", "adam", "Optimizer: adam or sgd")
	f.Float64("lr", 0.01, "Learning rate")
	f.Float64("momentum", 0, "SGD momentum")
	f.Int("max-iter", 1000, "Maximum optimizer steps")
	f.Float64("tol", 1e-8, "Gradient-norm convergence threshold")
	return cmd
}
