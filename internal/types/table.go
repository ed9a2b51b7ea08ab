package types

import (
	"sort"
	"time"

	"github.com/rxtech-lab/argo-forecast/pkg/errors"
)

// FeatureRow is one labelled observation of one instrument at one timestamp.
type FeatureRow struct {
	Symbol string
	Time   time.Time
	// Close is the bar close the label was derived from. It is kept for auditing and is never a model input.
	Close    float64
	Features map[FeatureName]float64
	// Label is 1 when the next bar of the same instrument closes higher, otherwise 0.
	Label int
}

// Vector returns the row's values for the given features, in order.
func (r FeatureRow) Vector(features FeatureSet) ([]float64, error) {
	out := make([]float64, len(features))
	for i, name := range features {
		value, ok := r.Features[name]
		if !ok {
			return nil, errors.Newf(errors.ErrCodeUnknownFeature, "feature %s missing for %s at %s", name, r.Symbol, r.Time.Format(time.RFC3339))
		}

		out[i] = value
	}

	return out, nil
}

// FeatureTable is an ordered sequence of rows spanning any number of instruments.
type FeatureTable []FeatureRow

// SortByTimeSymbol orders the table by (time, symbol). The sort is stable so
// equal keys keep their relative order.
func (t FeatureTable) SortByTimeSymbol() {
	sort.SliceStable(t, func(i, j int) bool {
		if !t[i].Time.Equal(t[j].Time) {
			return t[i].Time.Before(t[j].Time)
		}

		return t[i].Symbol < t[j].Symbol
	})
}

// IsSortedByTimeSymbol reports whether the table is ordered by (time, symbol).
func (t FeatureTable) IsSortedByTimeSymbol() bool {
	for i := 1; i < len(t); i++ {
		prev, cur := t[i-1], t[i]
		if cur.Time.Before(prev.Time) {
			return false
		}

		if cur.Time.Equal(prev.Time) && cur.Symbol < prev.Symbol {
			return false
		}
	}

	return true
}

// Matrix returns the feature matrix for the given features, one row per table row.
func (t FeatureTable) Matrix(features FeatureSet) ([][]float64, error) {
	out := make([][]float64, len(t))
	for i, row := range t {
		vector, err := row.Vector(features)
		if err != nil {
			return nil, err
		}

		out[i] = vector
	}

	return out, nil
}

// Labels returns the label column.
func (t FeatureTable) Labels() []int {
	out := make([]int, len(t))
	for i, row := range t {
		out[i] = row.Label
	}

	return out
}

// Times returns the timestamp column.
func (t FeatureTable) Times() []time.Time {
	out := make([]time.Time, len(t))
	for i, row := range t {
		out[i] = row.Time
	}

	return out
}

// Column returns a single feature column. Missing values are reported as an error.
func (t FeatureTable) Column(name FeatureName) ([]float64, error) {
	out := make([]float64, len(t))
	for i, row := range t {
		value, ok := row.Features[name]
		if !ok {
			return nil, errors.Newf(errors.ErrCodeUnknownFeature, "feature %s missing for %s", name, row.Symbol)
		}

		out[i] = value
	}

	return out, nil
}

// Symbols returns the distinct symbols of the table in ascending order.
func (t FeatureTable) Symbols() []string {
	seen := make(map[string]struct{})
	for _, row := range t {
		seen[row.Symbol] = struct{}{}
	}

	symbols := make([]string, 0, len(seen))
	for symbol := range seen {
		symbols = append(symbols, symbol)
	}

	sort.Strings(symbols)

	return symbols
}

// TimeRange returns the earliest and latest timestamps of the table.
// ok is false for an empty table.
func (t FeatureTable) TimeRange() (first, last time.Time, ok bool) {
	if len(t) == 0 {
		return time.Time{}, time.Time{}, false
	}

	first, last = t[0].Time, t[0].Time
	for _, row := range t[1:] {
		if row.Time.Before(first) {
			first = row.Time
		}

		if row.Time.After(last) {
			last = row.Time
		}
	}

	return first, last, true
}

// Slice returns the rows covered by r. The returned table shares storage with t.
func (t FeatureTable) Slice(r Range) FeatureTable {
	return t[r.Start:r.End]
}
