package main

import (
	"context"
	"log"
	"os"

	"github.com/rxtech-lab/argo-forecast/internal/version"
	"github.com/urfave/cli/v3"
)

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "forecast",
		Usage:   "Leakage-safe next-bar direction forecasting over multi-instrument price data",
		Version: version.GetVersion(),
		Commands: []*cli.Command{
			runCommand(),
			featuresCommand(),
			schemaCommand(),
		},
	}
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
