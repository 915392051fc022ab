package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Print the recorded tape",
		Long: `Print graph statistics followed by one line per node in evaluation order.
Variables are listed first as x0, x1, ... in --vars order.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			g, err := a.graph()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			s := g.Stats()
			fmt.Fprintf(out, "expression: %s\n", a.cfg.Expression)
			for i, name := range a.cfg.Variables {
				fmt.Fprintf(out, "x%d: %s\n", i, name)
			}
			fmt.Fprintf(out, "nodes=%d variables=%d constants=%d operations=%d edges=%d\n",
				s.Nodes, s.Variables, s.Constants, s.Operations, s.Edges)
			_, err = g.WriteTo(out)
			return err
		},
	}
}
