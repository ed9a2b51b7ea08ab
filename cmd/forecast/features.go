package main

import (
	"context"
	"fmt"

	"github.com/rxtech-lab/argo-forecast/internal/pipeline"
	"github.com/rxtech-lab/argo-forecast/internal/writer"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func featuresCommand() *cli.Command {
	return &cli.Command{
		Name:  "features",
		Usage: "Compute the labelled feature table and export it to parquet",
		Flags: []cli.Flag{
			configFlag(),
			dataFlag(),
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Parquet output `FILE`",
				Value:   "features.parquet",
			},
		},
		Action: featuresAction,
	}
}

func featuresAction(ctx context.Context, cmd *cli.Command) error {
	config, log, bars, err := loadInputs(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	result, err := pipeline.NewPipeline(config, log).Featurize(ctx, bars)
	if err != nil {
		return err
	}

	for _, failure := range result.Failures {
		log.Warn("Instrument skipped", zap.String("symbol", failure.Symbol), zap.Error(failure.Err))
	}

	path, err := writer.WriteFeatureTable(cmd.String("output"), config.FeatureSet(), result.Table, log)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.Root().Writer, "Exported %d rows for %d instruments to %s\n", len(result.Table), len(result.Stats), path)

	return nil
}
