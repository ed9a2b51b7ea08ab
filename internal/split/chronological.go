package split

import (
	"time"

	"github.com/rxtech-lab/argo-forecast/internal/types"
	"github.com/rxtech-lab/argo-forecast/pkg/errors"
)

// Partition is a training table and the holdout table strictly after it.
type Partition struct {
	Boundary time.Time
	Train    types.FeatureTable
	Holdout  types.FeatureTable
}

// Chronological splits a (time, symbol) sorted table at boundary. Rows at or before
// the boundary train, rows after it are held out. Both sides keep the input order.
//
// The boundary must leave both sides non-empty: it may not precede the first row
// and must come before the last one.
func Chronological(table types.FeatureTable, boundary time.Time) (*Partition, error) {
	first, last, ok := table.TimeRange()
	if !ok {
		return nil, errors.NewInsufficientDataError(2, 0, "", "cannot split an empty table")
	}

	if !table.IsSortedByTimeSymbol() {
		return nil, errors.New(errors.ErrCodeNonMonotonicTimestamps, "table must be sorted by time and symbol before splitting")
	}

	if boundary.Before(first) {
		return nil, errors.Newf(errors.ErrCodeInvalidSplitBoundary, "split boundary %s precedes the first row at %s", boundary.Format(time.RFC3339), first.Format(time.RFC3339))
	}

	if !boundary.Before(last) {
		return nil, errors.Newf(errors.ErrCodeInvalidSplitBoundary, "split boundary %s is not before the last row at %s", boundary.Format(time.RFC3339), last.Format(time.RFC3339))
	}

	// the table is time sorted, so the first row after the boundary splits it
	cut := len(table)
	for i, row := range table {
		if row.Time.After(boundary) {
			cut = i

			break
		}
	}

	train := make(types.FeatureTable, cut)
	copy(train, table[:cut])

	holdout := make(types.FeatureTable, len(table)-cut)
	copy(holdout, table[cut:])

	return &Partition{
		Boundary: boundary,
		Train:    train,
		Holdout:  holdout,
	}, nil
}

// Verify checks that every training row is at or before the boundary and every
// holdout row after it.
func (p *Partition) Verify() error {
	for _, row := range p.Train {
		if row.Time.After(p.Boundary) {
			return errors.Newf(errors.ErrCodeTemporalLeak, "training row %s at %s is after the boundary", row.Symbol, row.Time)
		}
	}

	for _, row := range p.Holdout {
		if !row.Time.After(p.Boundary) {
			return errors.Newf(errors.ErrCodeTemporalLeak, "holdout row %s at %s is not after the boundary", row.Symbol, row.Time)
		}
	}

	return nil
}
