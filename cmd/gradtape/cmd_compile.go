package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/born-ml/gradtape/internal/serialization"
)

func (a *app) compileCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Record the expression and save the tape",
		Long: `Record the expression once and save the resulting tape in .gtape format.
Other commands load it with --tape instead of parsing the expression again.

Example:
  gradtape --expr "x*y + sin(x)" --vars x,y compile --out f.gtape
  gradtape --tape f.gtape eval --at 2,3 --gradient`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if out == "" {
				return errors.New("--out is required")
			}
			g, err := a.graph()
			if err != nil {
				return err
			}

			err = serialization.WriteFile(out, g, serialization.Header{
				GradtapeVersion: version,
				Expression:      a.cfg.Expression,
				Variables:       a.cfg.Variables,
				Prune:           a.cfg.Engine.Prune,
			})
			if err != nil {
				return err
			}

			a.logger.Info("tape written", slog.String("path", out), slog.Int("nodes", g.Len()))
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d nodes\n", out, g.Len())
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output .gtape file")
	return cmd
}
