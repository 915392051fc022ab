package main

import (
	"encoding/csv"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/born-ml/gradtape/internal/batch"
)

func (a *app) evalCmd() *cobra.Command {
	var (
		pointsPath string
		at         string
		header     bool
		gradient   bool
	)
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate the expression (and its gradient) at points",
		Long: `Evaluate the expression at every row of a CSV file, or at a single point.

Each output row is the value followed, with --gradient, by one partial
derivative per variable.

Examples:
  gradtape --expr "x*y + sin(x)" --vars x,y eval --at 2,3 --gradient
  gradtape --config run.yaml eval --points points.csv --header`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			g, err := a.graph()
			if err != nil {
				return err
			}
			tbl, err := a.points(pointsPath, at, header)
			if err != nil {
				return err
			}

			results, err := batch.Evaluate(cmd.Context(), g, tbl.Rows, batch.Config{
				Parallel: a.cfg.ParallelConfig(),
				Gradient: gradient,
				Logger:   a.logger,
			})
			if err != nil {
				return err
			}

			w := csv.NewWriter(cmd.OutOrStdout())
			if header {
				row := []string{"value"}
				if gradient {
					for _, v := range a.cfg.Variables {
						row = append(row, "d/d"+v)
					}
				}
				if err := w.Write(row); err != nil {
					return err
				}
			}
			for _, r := range results {
				row := []string{formatFloat(r.Value)}
				for _, d := range r.Gradient {
					row = append(row, formatFloat(d))
				}
				if err := w.Write(row); err != nil {
					return err
				}
			}
			w.Flush()
			return w.Error()
		},
	}

	f := cmd.Flags()
	f.StringVar(&pointsPath, "points", "", "CSV file with one point per row")
	f.StringVar(&at, "at", "", "Single comma-separated point")
	f.BoolVar(&header, "header", false, "The CSV file starts with a header line; also print one")
	f.BoolVar(&gradient, "gradient", false, "Print the gradient after the value")
	return cmd
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatPoint(p []float64) string {
	parts := make([]string, len(p))
	for i, v := range p {
		parts[i] = formatFloat(v)
	}
	return strings.Join(parts, ",")
}
