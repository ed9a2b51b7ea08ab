package tuning

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/rxtech-lab/argo-forecast/internal/logger"
	"github.com/rxtech-lab/argo-forecast/internal/model"
	"github.com/rxtech-lab/argo-forecast/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CVResult is the cross-validated score of one grid point.
type CVResult struct {
	Params     model.Params `json:"params" yaml:"params"`
	FoldScores []float64    `json:"fold_scores" yaml:"fold_scores"`
	MeanScore  float64      `json:"mean_score" yaml:"mean_score"`
	// Rank is 1 for the best mean score. Equal scores share a rank.
	Rank int `json:"rank" yaml:"rank"`
}

// TunedModel is the best grid point refit on the whole training partition.
// The estimator must not be refit by callers; clone it instead.
type TunedModel struct {
	Params    model.Params
	Estimator model.Estimator
	BestScore float64
	Folds     []Fold
	Results   []CVResult
}

// OnCandidateScoredCallback is called once per grid point, from a worker goroutine.
type OnCandidateScoredCallback func(result CVResult, done, total int)

// Tuner runs an exhaustive grid search scored by forward-chaining cross-validation.
type Tuner struct {
	factory  model.Factory
	splitter *TimeSeriesSplit
	workers  int
	log      *logger.Logger
	onScored OnCandidateScoredCallback
}

// NewTuner creates a tuner. workers <= 0 uses GOMAXPROCS.
func NewTuner(factory model.Factory, splitter *TimeSeriesSplit, workers int, log *logger.Logger) *Tuner {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	return &Tuner{
		factory:  factory,
		splitter: splitter,
		workers:  workers,
		log:      log,
		onScored: nil,
	}
}

// OnCandidateScored registers a progress callback.
func (t *Tuner) OnCandidateScored(callback OnCandidateScoredCallback) {
	t.onScored = callback
}

// Tune scores every grid point on every fold of X, picks the highest mean accuracy
// and refits a fresh estimator with those params on all of X. Ties go to the point
// that comes first in grid order. Rows of X must be in time order. times holds the
// timestamp of each row; nil treats every row as its own time step.
func (t *Tuner) Tune(ctx context.Context, X [][]float64, y []int, times []time.Time, grid ParamGrid) (*TunedModel, error) {
	if len(X) != len(y) {
		return nil, errors.Newf(errors.ErrCodeFeatureMismatch, "X has %d rows but y has %d", len(X), len(y))
	}

	if times != nil && len(times) != len(X) {
		return nil, errors.Newf(errors.ErrCodeMisalignedData, "X has %d rows but %d timestamps", len(X), len(times))
	}

	points, err := grid.Expand()
	if err != nil {
		return nil, err
	}

	var folds []Fold
	if times == nil {
		folds, err = t.splitter.Split(len(X))
	} else {
		folds, err = t.splitter.SplitTimes(times)
	}

	if err != nil {
		return nil, err
	}

	// build every estimator up front so a bad grid fails before any fitting
	estimators := make([]model.Estimator, len(points))
	for i, params := range points {
		estimator, err := t.factory(params)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeInvalidModelSpec, err, "invalid grid point %s", model.FormatParams(params))
		}

		estimators[i] = estimator
	}

	t.log.Info("Starting grid search",
		zap.Int("candidates", len(points)),
		zap.Int("folds", len(folds)),
		zap.Int("rows", len(X)),
		zap.Int("workers", t.workers),
	)

	results := make([]CVResult, len(points))
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.workers)

	for i := range points {
		g.Go(func() error {
			scores := make([]float64, len(folds))

			for k, fold := range folds {
				if err := gctx.Err(); err != nil {
					return err
				}

				score, err := scoreFold(estimators[i], X, y, fold)
				if err != nil {
					return errors.Wrapf(errors.ErrCodeModelFitFailed, err, "fold %d failed for %s", fold.Index, model.FormatParams(points[i]))
				}

				scores[k] = score
			}

			results[i] = CVResult{
				Params:     points[i],
				FoldScores: scores,
				MeanScore:  mean(scores),
			}

			finished := int(done.Add(1))
			t.log.Debug("Scored grid point",
				zap.String("params", model.FormatParams(points[i])),
				zap.Float64("mean_score", results[i].MeanScore),
			)

			if t.onScored != nil {
				t.onScored(results[i], finished, len(points))
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	best := 0
	for i := range results {
		if results[i].MeanScore > results[best].MeanScore {
			best = i
		}
	}

	rank(results)

	refit := estimators[best].Clone()
	if err := refit.Fit(X, y); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeModelFitFailed, err, "refit with %s failed", model.FormatParams(points[best]))
	}

	t.log.Info("Grid search finished",
		zap.String("best_params", model.FormatParams(points[best])),
		zap.Float64("best_score", results[best].MeanScore),
	)

	return &TunedModel{
		Params:    points[best],
		Estimator: refit,
		BestScore: results[best].MeanScore,
		Folds:     folds,
		Results:   results,
	}, nil
}

// scoreFold fits a fresh clone of template on the fold's training rows and scores
// it on the test rows.
func scoreFold(template model.Estimator, X [][]float64, y []int, fold Fold) (float64, error) {
	estimator := template.Clone()

	if err := estimator.Fit(X[fold.Train.Start:fold.Train.End], y[fold.Train.Start:fold.Train.End]); err != nil {
		return 0, err
	}

	return estimator.Score(X[fold.Test.Start:fold.Test.End], y[fold.Test.Start:fold.Test.End])
}

func rank(results []CVResult) {
	for i := range results {
		r := 1
		for j := range results {
			if results[j].MeanScore > results[i].MeanScore {
				r++
			}
		}

		results[i].Rank = r
	}
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}
