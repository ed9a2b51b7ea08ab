package tuning

import (
	"time"

	"github.com/rxtech-lab/argo-forecast/internal/types"
	"github.com/rxtech-lab/argo-forecast/pkg/errors"
)

// Fold is one forward-chaining cross-validation step. Train always ends where
// Test begins and starts at row 0.
type Fold struct {
	Index int         `json:"index" yaml:"index"`
	Train types.Range `json:"train" yaml:"train"`
	Test  types.Range `json:"test" yaml:"test"`
}

// TimeSeriesSplit produces expanding-window folds over time ordered rows.
type TimeSeriesSplit struct {
	nSplits     int
	minFoldSize int
}

// NewTimeSeriesSplit creates a splitter with nSplits folds. Every test fold and the
// first training fold must hold at least minFoldSize rows.
func NewTimeSeriesSplit(nSplits, minFoldSize int) (*TimeSeriesSplit, error) {
	if nSplits < 2 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "cross-validation needs at least 2 splits, got %d", nSplits)
	}

	if minFoldSize < 1 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "minimum fold size must be positive, got %d", minFoldSize)
	}

	return &TimeSeriesSplit{nSplits: nSplits, minFoldSize: minFoldSize}, nil
}

// NSplits returns the number of folds.
func (s *TimeSeriesSplit) NSplits() int {
	return s.nSplits
}

// MinRows returns the fewest rows Split accepts. SplitTimes needs as many distinct
// timestamps.
func (s *TimeSeriesSplit) MinRows() int {
	return (s.nSplits + 1) * s.minFoldSize
}

// Split divides n rows, one per time step, into nSplits folds. Each test fold holds
// n/(nSplits+1) rows, the last fold ends at row n and fold k trains on every row
// before its test fold. Leftover rows from the integer division go to the first
// training fold.
func (s *TimeSeriesSplit) Split(n int) ([]Fold, error) {
	starts := make([]int, n)
	for i := range starts {
		starts[i] = i
	}

	return s.split(starts, n, "rows")
}

// SplitTimes splits rows that may share a timestamp, such as a table holding several
// instruments sorted by time. Folds are cut over distinct timestamps so a timestamp
// never lands in both the training and the test side of a fold. times must be
// non-decreasing.
func (s *TimeSeriesSplit) SplitTimes(times []time.Time) ([]Fold, error) {
	starts := make([]int, 0, len(times))

	for i, t := range times {
		if i > 0 {
			if t.Before(times[i-1]) {
				return nil, errors.Newf(errors.ErrCodeNonMonotonicTimestamps,
					"row %d at %s comes before row %d at %s", i, t.Format(time.RFC3339), i-1, times[i-1].Format(time.RFC3339))
			}

			if t.Equal(times[i-1]) {
				continue
			}
		}

		starts = append(starts, i)
	}

	return s.split(starts, len(times), "timestamps")
}

// split builds folds over groups of rows. starts holds the first row of each group
// and n is the total row count.
func (s *TimeSeriesSplit) split(starts []int, n int, unit string) ([]Fold, error) {
	groups := len(starts)
	if groups < s.MinRows() {
		return nil, errors.NewInsufficientDataErrorf(s.MinRows(), groups, "",
			"%d folds with at least %d %s each need %d %s, got %d", s.nSplits, s.minFoldSize, unit, s.MinRows(), unit, groups)
	}

	row := func(group int) int {
		if group >= groups {
			return n
		}

		return starts[group]
	}

	testSize := groups / (s.nSplits + 1)
	folds := make([]Fold, s.nSplits)

	for k := range folds {
		testStart := groups - (s.nSplits-k)*testSize
		folds[k] = Fold{
			Index: k,
			Train: types.Range{Start: 0, End: row(testStart)},
			Test:  types.Range{Start: row(testStart), End: row(testStart + testSize)},
		}
	}

	return folds, nil
}
