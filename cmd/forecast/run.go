package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/rxtech-lab/argo-forecast/internal/datasource"
	"github.com/rxtech-lab/argo-forecast/internal/logger"
	"github.com/rxtech-lab/argo-forecast/internal/pipeline"
	"github.com/rxtech-lab/argo-forecast/internal/tuning"
	"github.com/rxtech-lab/argo-forecast/internal/types"
	"github.com/rxtech-lab/argo-forecast/internal/walkforward"
	"github.com/rxtech-lab/argo-forecast/internal/writer"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "config",
		Aliases:  []string{"c"},
		Usage:    "Path to the pipeline config `FILE`",
		Required: true,
	}
}

func dataFlag() cli.Flag {
	return &cli.StringSliceFlag{
		Name:     "data",
		Aliases:  []string{"d"},
		Usage:    "Bar file (parquet or csv). Repeat for several files",
		Required: true,
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Featurize, select, split, tune and walk-forward evaluate",
		Flags: []cli.Flag{
			configFlag(),
			dataFlag(),
			&cli.StringFlag{
				Name:    "results",
				Aliases: []string{"r"},
				Usage:   "Directory receiving one folder per run",
				Value:   "results",
			},
			&cli.StringFlag{
				Name:  "metrics-file",
				Usage: "Write prometheus metrics in textfile format to this path",
			},
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "Disable progress bars and the summary",
			},
		},
		Action: runAction,
	}
}

// loadInputs reads the config, builds its logger and loads the configured bars.
func loadInputs(cmd *cli.Command) (pipeline.Config, *logger.Logger, []types.PriceBar, error) {
	config, err := pipeline.LoadConfig(cmd.String("config"))
	if err != nil {
		return pipeline.Config{}, nil, nil, err
	}

	log, err := logger.NewLoggerWithLevel(config.LogLevel)
	if err != nil {
		return pipeline.Config{}, nil, nil, err
	}

	ds, err := datasource.NewDataSource(":memory:", log)
	if err != nil {
		return pipeline.Config{}, nil, nil, err
	}
	defer ds.Close()

	if err := ds.Initialize(cmd.StringSlice("data")...); err != nil {
		return pipeline.Config{}, nil, nil, err
	}

	bars, err := ds.ReadBars(config.Symbols, config.StartTime, config.EndTime)
	if err != nil {
		return pipeline.Config{}, nil, nil, err
	}

	log.Info("Loaded bars", zap.Int("bars", len(bars)), zap.Strings("data", cmd.StringSlice("data")))

	return config, log, bars, nil
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	config, log, bars, err := loadInputs(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	quiet := cmd.Bool("quiet")
	out := cmd.Root().Writer
	callbacks := progressCallbacks(cmd.Root().ErrWriter, quiet, log)

	p := pipeline.NewPipeline(config, log)

	report, err := p.Run(ctx, bars, callbacks)
	if err != nil {
		return fmt.Errorf("pipeline run failed: %w", err)
	}

	dir, err := writer.RunDirectory(cmd.String("results"), report.RunID)
	if err != nil {
		return err
	}

	if err := writer.WriteYAML(filepath.Join(dir, "report.yaml"), report); err != nil {
		return err
	}

	if err := writer.WriteYAML(filepath.Join(dir, "config.yaml"), config); err != nil {
		return err
	}

	if path := cmd.String("metrics-file"); path != "" {
		if err := p.Metrics().WriteTextfile(path); err != nil {
			return err
		}
	}

	if !quiet {
		fmt.Fprintln(out, renderReport(report))
		fmt.Fprintf(out, "Results written to %s\n", dir)
	}

	return nil
}

func progressCallbacks(w io.Writer, quiet bool, log *logger.Logger) pipeline.LifecycleCallbacks {
	onStageEnd := pipeline.OnStageEndCallback(func(stage pipeline.Stage, elapsed time.Duration) {
		log.Info("Stage finished", zap.String("stage", string(stage)), zap.Duration("elapsed", elapsed))
	})

	onWindowDone := walkforward.OnWindowDoneCallback(func(score walkforward.WindowScore) {
		log.Info("Walk-forward window scored",
			zap.Int("window", score.Window.Index),
			zap.Float64("accuracy", score.Accuracy),
		)
	})

	callbacks := pipeline.LifecycleCallbacks{
		OnStageEnd:   &onStageEnd,
		OnWindowDone: &onWindowDone,
	}

	if quiet {
		return callbacks
	}

	var bar *progressbar.ProgressBar

	onTuningStart := pipeline.OnTuningStartCallback(func(candidates int, folds int) {
		bar = progressbar.NewOptions(candidates,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription(fmt.Sprintf("Tuning (%d folds)", folds)),
			progressbar.OptionShowCount(),
		)
	})

	onCandidateScored := tuning.OnCandidateScoredCallback(func(_ tuning.CVResult, _, _ int) {
		if bar != nil {
			_ = bar.Add(1)
		}
	})

	callbacks.OnTuningStart = &onTuningStart
	callbacks.OnCandidateScored = &onCandidateScored

	return callbacks
}
