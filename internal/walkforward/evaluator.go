package walkforward

import (
	"context"

	"github.com/rxtech-lab/argo-forecast/internal/logger"
	"github.com/rxtech-lab/argo-forecast/internal/model"
	"github.com/rxtech-lab/argo-forecast/internal/types"
	"github.com/rxtech-lab/argo-forecast/pkg/errors"
	"go.uber.org/zap"
)

// WindowScore is the accuracy of a model retrained for one window.
type WindowScore struct {
	Window   types.WalkForwardWindow `json:"window" yaml:"window"`
	Accuracy float64                 `json:"accuracy" yaml:"accuracy"`
}

// Result holds the scores of every window in order.
type Result struct {
	Windows []WindowScore `json:"windows" yaml:"windows"`
}

// Scores returns the per-window accuracies.
func (r *Result) Scores() []float64 {
	scores := make([]float64, len(r.Windows))
	for i, w := range r.Windows {
		scores[i] = w.Accuracy
	}

	return scores
}

// Mean returns the average accuracy. ok is false when there are no windows.
func (r *Result) Mean() (mean float64, ok bool) {
	if len(r.Windows) == 0 {
		return 0, false
	}

	sum := 0.0
	for _, w := range r.Windows {
		sum += w.Accuracy
	}

	return sum / float64(len(r.Windows)), true
}

// OnWindowDoneCallback is called after each window is scored.
type OnWindowDoneCallback func(score WindowScore)

// Evaluator retrains a model on a rolling window and scores it on the rows that
// immediately follow.
type Evaluator struct {
	initialTrainSize int
	testSize         int
	log              *logger.Logger
	onDone           OnWindowDoneCallback
}

// NewEvaluator creates an evaluator. Both sizes must be positive.
func NewEvaluator(initialTrainSize, testSize int, log *logger.Logger) (*Evaluator, error) {
	if initialTrainSize <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidWindowSize, "initial train size must be positive, got %d", initialTrainSize)
	}

	if testSize <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidWindowSize, "test size must be positive, got %d", testSize)
	}

	return &Evaluator{
		initialTrainSize: initialTrainSize,
		testSize:         testSize,
		log:              log,
		onDone:           nil,
	}, nil
}

// OnWindowDone registers a progress callback.
func (e *Evaluator) OnWindowDone(callback OnWindowDoneCallback) {
	e.onDone = callback
}

// Windows lays out the rolling windows over n rows. Window k trains on
// [k*test, k*test+initial) and tests on the test rows right after. Only windows
// whose test range fits entirely inside n are produced, so fewer than
// initial+test rows give none.
func (e *Evaluator) Windows(n int) []types.WalkForwardWindow {
	var windows []types.WalkForwardWindow

	for k := 0; ; k++ {
		trainStart := k * e.testSize
		trainEnd := trainStart + e.initialTrainSize
		testEnd := trainEnd + e.testSize

		if testEnd > n {
			break
		}

		windows = append(windows, types.WalkForwardWindow{
			Index: k,
			Train: types.Range{Start: trainStart, End: trainEnd},
			Test:  types.Range{Start: trainEnd, End: testEnd},
		})
	}

	return windows
}

// Evaluate scores template over every window of table. Each window fits its own
// clone of template; template is never fitted. table must be sorted by (time, symbol).
// An empty result is valid when table is shorter than one window.
func (e *Evaluator) Evaluate(ctx context.Context, template model.Estimator, table types.FeatureTable, features types.FeatureSet) (*Result, error) {
	if !table.IsSortedByTimeSymbol() {
		return nil, errors.New(errors.ErrCodeNonMonotonicTimestamps, "walk-forward table must be sorted by time and symbol")
	}

	X, err := table.Matrix(features)
	if err != nil {
		return nil, err
	}

	y := table.Labels()
	windows := e.Windows(len(table))
	result := &Result{Windows: make([]WindowScore, 0, len(windows))}

	if len(windows) == 0 {
		e.log.Warn("Not enough rows for a walk-forward window",
			zap.Int("rows", len(table)),
			zap.Int("initial_train_size", e.initialTrainSize),
			zap.Int("test_size", e.testSize),
		)

		return result, nil
	}

	for _, window := range windows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		estimator := template.Clone()

		if err := estimator.Fit(X[window.Train.Start:window.Train.End], y[window.Train.Start:window.Train.End]); err != nil {
			return nil, errors.Wrapf(errors.ErrCodeModelFitFailed, err, "walk-forward window %d failed to fit", window.Index)
		}

		accuracy, err := estimator.Score(X[window.Test.Start:window.Test.End], y[window.Test.Start:window.Test.End])
		if err != nil {
			return nil, err
		}

		score := WindowScore{Window: window, Accuracy: accuracy}
		result.Windows = append(result.Windows, score)

		e.log.Debug("Scored walk-forward window",
			zap.Int("window", window.Index),
			zap.String("train", window.Train.String()),
			zap.String("test", window.Test.String()),
			zap.Float64("accuracy", accuracy),
		)

		if e.onDone != nil {
			e.onDone(score)
		}
	}

	mean, _ := result.Mean()
	e.log.Info("Walk-forward evaluation finished",
		zap.Int("windows", len(result.Windows)),
		zap.Float64("mean_accuracy", mean),
	)

	return result, nil
}
