package pipeline

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rxtech-lab/argo-forecast/internal/features"
	"github.com/rxtech-lab/argo-forecast/internal/indicator"
	"github.com/rxtech-lab/argo-forecast/internal/logger"
	"github.com/rxtech-lab/argo-forecast/internal/metrics"
	"github.com/rxtech-lab/argo-forecast/internal/model"
	"github.com/rxtech-lab/argo-forecast/internal/selection"
	"github.com/rxtech-lab/argo-forecast/internal/split"
	"github.com/rxtech-lab/argo-forecast/internal/tuning"
	"github.com/rxtech-lab/argo-forecast/internal/types"
	"github.com/rxtech-lab/argo-forecast/internal/walkforward"
	"github.com/rxtech-lab/argo-forecast/pkg/errors"
	"go.uber.org/zap"
)

// Stage names a phase of a pipeline run.
type Stage string

const (
	StageFeaturize   Stage = "featurize"
	StageSelect      Stage = "select"
	StageSplit       Stage = "split"
	StageTune        Stage = "tune"
	StageEvaluate    Stage = "evaluate"
	StageWalkForward Stage = "walk_forward"
)

// Lifecycle callback types for pipeline phases.
// Callbacks returning an error abort the run.

// OnRunStartCallback is called once the input has been filtered.
type OnRunStartCallback func(runID string, instruments int, bars int) error

// OnRunEndCallback is called when the run finishes (always called via defer).
type OnRunEndCallback func(err error)

// OnStageStartCallback is called before each stage.
type OnStageStartCallback func(stage Stage) error

// OnStageEndCallback is called after each stage that completed.
type OnStageEndCallback func(stage Stage, elapsed time.Duration)

// OnTuningStartCallback is called before the grid search with the number of candidates.
type OnTuningStartCallback func(candidates int, folds int)

// LifecycleCallbacks holds all lifecycle callback functions for the pipeline.
// All fields are pointers - nil means no callback will be invoked.
type LifecycleCallbacks struct {
	OnRunStart        *OnRunStartCallback
	OnRunEnd          *OnRunEndCallback
	OnStageStart      *OnStageStartCallback
	OnStageEnd        *OnStageEndCallback
	OnInstrumentDone  *features.OnInstrumentDoneCallback
	OnTuningStart     *OnTuningStartCallback
	OnCandidateScored *tuning.OnCandidateScoredCallback
	OnWindowDone      *walkforward.OnWindowDoneCallback
}

// Pipeline runs featurization, selection, splitting, tuning and walk-forward
// evaluation over a multi-instrument bar set.
type Pipeline struct {
	config   Config
	registry indicator.IndicatorRegistry
	factory  model.Factory
	metrics  *metrics.Recorder
	log      *logger.Logger
}

// NewPipeline creates a pipeline using the built-in indicators and a random forest.
// The config must already be validated.
func NewPipeline(config Config, log *logger.Logger) *Pipeline {
	return &Pipeline{
		config:   config,
		registry: indicator.NewDefaultRegistry(),
		factory:  model.NewRandomForestFromParams,
		metrics:  metrics.New(),
		log:      log,
	}
}

// SetRegistry replaces the indicator registry.
func (p *Pipeline) SetRegistry(registry indicator.IndicatorRegistry) error {
	if registry == nil {
		return errors.New(errors.ErrCodeInvalidParameter, "registry cannot be nil")
	}

	p.registry = registry

	return nil
}

// SetFactory replaces the estimator factory.
func (p *Pipeline) SetFactory(factory model.Factory) error {
	if factory == nil {
		return errors.New(errors.ErrCodeInvalidParameter, "factory cannot be nil")
	}

	p.factory = factory

	return nil
}

// Metrics returns the recorder the pipeline reports into.
func (p *Pipeline) Metrics() *metrics.Recorder {
	return p.metrics
}

// Run executes the pipeline over bars. Bars outside the configured symbols and time
// range are ignored.
func (p *Pipeline) Run(ctx context.Context, bars []types.PriceBar, callbacks LifecycleCallbacks) (report *Report, err error) {
	runID := uuid.New().String()

	defer func() {
		if callbacks.OnRunEnd != nil {
			(*callbacks.OnRunEnd)(err)
		}
	}()

	report = &Report{
		RunID:         runID,
		StartedAt:     time.Now(),
		SplitBoundary: p.config.SplitBoundary,
	}

	bars = p.filter(bars)
	if len(bars) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyInput, "no bars match the configured symbols and time range")
	}

	if callbacks.OnRunStart != nil {
		if err := (*callbacks.OnRunStart)(runID, countSymbols(bars), len(bars)); err != nil {
			return nil, err
		}
	}

	p.log.Info("Starting forecast pipeline",
		zap.String("run_id", runID),
		zap.Int("bars", len(bars)),
		zap.Time("split_boundary", p.config.SplitBoundary),
	)

	var result *features.Result

	err = p.stage(StageFeaturize, callbacks, func() error {
		result, err = p.featurize(ctx, bars, callbacks)

		return err
	})
	if err != nil {
		return nil, err
	}

	report.Instruments = result.Stats
	report.Failures = instrumentErrors(result.Failures)
	report.Rows = len(result.Table)

	if len(result.Table) == 0 {
		return nil, errors.NewInsufficientDataError(1, 0, "", "no instrument produced a feature row")
	}

	var chosen *selection.Selection

	err = p.stage(StageSelect, callbacks, func() error {
		selector, err := selection.NewSelector(p.config.CorrelationThreshold, p.log)
		if err != nil {
			return err
		}

		chosen, err = selector.Select(result.Table, p.config.FeatureSet())

		return err
	})
	if err != nil {
		return nil, err
	}

	report.Selection = chosen

	var partition *split.Partition

	err = p.stage(StageSplit, callbacks, func() error {
		partition, err = split.Chronological(chosen.Apply(result.Table), p.config.SplitBoundary)
		if err != nil {
			return err
		}

		return partition.Verify()
	})
	if err != nil {
		return nil, err
	}

	report.TrainRows = len(partition.Train)
	report.HoldoutRows = len(partition.Holdout)

	var tuned *tuning.TunedModel

	err = p.stage(StageTune, callbacks, func() error {
		tuned, err = p.tune(ctx, partition.Train, chosen.Kept, callbacks)

		return err
	})
	if err != nil {
		return nil, err
	}

	report.BestParams = tuned.Estimator.Params()
	report.CVScore = tuned.BestScore
	report.CVResults = tuned.Results
	p.metrics.SetAccuracy("cv", tuned.BestScore)

	err = p.stage(StageEvaluate, callbacks, func() error {
		return p.evaluate(report, tuned, partition, chosen.Kept)
	})
	if err != nil {
		return nil, err
	}

	err = p.stage(StageWalkForward, callbacks, func() error {
		wf, err := p.walkForward(ctx, tuned, partition.Holdout, chosen.Kept, callbacks)
		if err != nil {
			return err
		}

		report.WalkForward = wf
		if mean, ok := wf.Mean(); ok {
			report.WalkForwardMean = &mean
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	report.CompletedAt = time.Now()

	p.log.Info("Forecast pipeline finished",
		zap.String("run_id", runID),
		zap.Float64("cv_score", report.CVScore),
		zap.Float64("holdout_accuracy", report.HoldoutAccuracy),
		zap.Int("walk_forward_windows", len(report.WalkForward.Windows)),
	)

	return report, nil
}

// Featurize runs only the featurization stage, for exporting feature tables.
func (p *Pipeline) Featurize(ctx context.Context, bars []types.PriceBar) (*features.Result, error) {
	return p.featurize(ctx, p.filter(bars), LifecycleCallbacks{})
}

func (p *Pipeline) stage(stage Stage, callbacks LifecycleCallbacks, run func() error) error {
	if callbacks.OnStageStart != nil {
		if err := (*callbacks.OnStageStart)(stage); err != nil {
			return err
		}
	}

	start := time.Now()
	if err := run(); err != nil {
		p.log.Error("Pipeline stage failed", zap.String("stage", string(stage)), zap.Error(err))

		return err
	}

	elapsed := time.Since(start)
	p.metrics.ObserveStage(string(stage), elapsed)
	p.log.Debug("Pipeline stage finished", zap.String("stage", string(stage)), zap.Duration("elapsed", elapsed))

	if callbacks.OnStageEnd != nil {
		(*callbacks.OnStageEnd)(stage, elapsed)
	}

	return nil
}

func (p *Pipeline) featurize(ctx context.Context, bars []types.PriceBar, callbacks LifecycleCallbacks) (*features.Result, error) {
	engine, err := features.NewEngine(p.registry, p.config.FeatureSet(), p.log)
	if err != nil {
		return nil, err
	}

	featurizer := features.NewFeaturizer(engine, p.config.Featurizer.Workers, p.log)
	featurizer.OnInstrumentDone(func(symbol string, stats types.DropStats, err error) {
		p.metrics.RecordInstrument(symbol, stats.Input, stats.UndefinedFeature, stats.NoNextBar, stats.Output, err)

		if callbacks.OnInstrumentDone != nil {
			(*callbacks.OnInstrumentDone)(symbol, stats, err)
		}
	})

	return featurizer.Featurize(ctx, bars)
}

func (p *Pipeline) tune(ctx context.Context, train types.FeatureTable, kept types.FeatureSet, callbacks LifecycleCallbacks) (*tuning.TunedModel, error) {
	X, err := train.Matrix(kept)
	if err != nil {
		return nil, err
	}

	splitter, err := tuning.NewTimeSeriesSplit(p.config.Tuning.CVSplits, p.config.Tuning.MinFoldSize)
	if err != nil {
		return nil, err
	}

	grid := tuning.ParamGrid(p.config.Tuning.ParamGrid)
	if len(grid) == 0 {
		grid = tuning.DefaultParamGrid()
	}

	if callbacks.OnTuningStart != nil {
		(*callbacks.OnTuningStart)(grid.Size(), splitter.NSplits())
	}

	tuner := tuning.NewTuner(p.seeded(p.factory), splitter, p.config.Tuning.Workers, p.log)
	tuner.OnCandidateScored(func(result tuning.CVResult, done, total int) {
		p.metrics.RecordGridPoint()

		if callbacks.OnCandidateScored != nil {
			(*callbacks.OnCandidateScored)(result, done, total)
		}
	})

	return tuner.Tune(ctx, X, train.Labels(), train.Times(), grid)
}

// seeded injects the configured seed into every grid point that does not set one.
func (p *Pipeline) seeded(factory model.Factory) model.Factory {
	return func(params model.Params) (model.Estimator, error) {
		if _, ok := params[model.ParamRandomState]; !ok {
			params = params.Clone()
			params[model.ParamRandomState] = p.config.Tuning.Seed
		}

		return factory(params)
	}
}

func (p *Pipeline) evaluate(report *Report, tuned *tuning.TunedModel, partition *split.Partition, kept types.FeatureSet) error {
	trainX, err := partition.Train.Matrix(kept)
	if err != nil {
		return err
	}

	report.TrainAccuracy, err = tuned.Estimator.Score(trainX, partition.Train.Labels())
	if err != nil {
		return err
	}

	holdoutX, err := partition.Holdout.Matrix(kept)
	if err != nil {
		return err
	}

	report.HoldoutAccuracy, err = tuned.Estimator.Score(holdoutX, partition.Holdout.Labels())
	if err != nil {
		return err
	}

	p.metrics.SetAccuracy("train", report.TrainAccuracy)
	p.metrics.SetAccuracy("holdout", report.HoldoutAccuracy)

	if forest, ok := tuned.Estimator.(*model.RandomForest); ok {
		report.FeatureImportance = rankImportances(kept, forest.FeatureImportances())
	}

	return nil
}

func (p *Pipeline) walkForward(ctx context.Context, tuned *tuning.TunedModel, holdout types.FeatureTable, kept types.FeatureSet, callbacks LifecycleCallbacks) (*walkforward.Result, error) {
	evaluator, err := walkforward.NewEvaluator(p.config.WalkForward.InitialTrainSize, p.config.WalkForward.TestSize, p.log)
	if err != nil {
		return nil, err
	}

	evaluator.OnWindowDone(func(score walkforward.WindowScore) {
		p.metrics.SetWindowAccuracy(strconv.Itoa(score.Window.Index), score.Accuracy)

		if callbacks.OnWindowDone != nil {
			(*callbacks.OnWindowDone)(score)
		}
	})

	return evaluator.Evaluate(ctx, tuned.Estimator, holdout, kept)
}

func (p *Pipeline) filter(bars []types.PriceBar) []types.PriceBar {
	symbols := make(map[string]bool, len(p.config.Symbols))
	for _, s := range p.config.Symbols {
		symbols[s] = true
	}

	out := make([]types.PriceBar, 0, len(bars))

	for _, bar := range bars {
		if len(symbols) > 0 && !symbols[bar.Symbol] {
			continue
		}

		if p.config.StartTime.IsSome() && bar.Time.Before(p.config.StartTime.Unwrap()) {
			continue
		}

		if p.config.EndTime.IsSome() && bar.Time.After(p.config.EndTime.Unwrap()) {
			continue
		}

		out = append(out, bar)
	}

	return out
}

func rankImportances(kept types.FeatureSet, importances []float64) []FeatureImportance {
	if len(importances) != len(kept) {
		return nil
	}

	out := make([]FeatureImportance, len(kept))
	for i, name := range kept {
		out[i] = FeatureImportance{Feature: name, Importance: importances[i]}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Importance > out[j].Importance
	})

	return out
}

func countSymbols(bars []types.PriceBar) int {
	seen := make(map[string]struct{})
	for _, bar := range bars {
		seen[bar.Symbol] = struct{}{}
	}

	return len(seen)
}
