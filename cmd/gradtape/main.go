// Command gradtape evaluates and differentiates scalar expressions.
//
// Usage:
//
//	gradtape --expr "x*y + sin(x)" --vars x,y eval --at 2,3 --gradient
//	gradtape --config run.yaml check --points points.csv --header
//	gradtape --expr "(x-3)^2 + (y+1)^2" --vars x,y minimize --start 0,0
package main

import (
	"log/slog"
	"os"
)

var version = "v0.1.0-dev"

func main() {
	a := newApp(os.Stderr)
	if err := a.rootCmd().Execute(); err != nil {
		a.logger.Error("gradtape failed", slog.Any("error", err))
		os.Exit(1)
	}
}
