package indicator

import (
	"github.com/rxtech-lab/argo-forecast/internal/types"
)

// Columns holds the feature series an indicator produced. Every series is aligned to the
// input (same length) and carries NaN where the value is not yet defined.
type Columns map[types.FeatureName][]float64

// Indicator interface defines methods that any technical indicator must implement.
// Implementations are pure: a value at index i only depends on bars 0..i of the series.
type Indicator interface {
	// Name returns the name of the indicator
	Name() types.IndicatorType
	// Features returns the feature columns the indicator emits, in a fixed order
	Features() []types.FeatureName
	// Lookback returns how many leading bars stay undefined on a long enough series
	Lookback() int
	// Compute calculates every emitted feature over the series
	Compute(series types.InstrumentSeries) (Columns, error)
	// Config configures the indicator parameters (periods, multipliers)
	Config(params ...any) error
}
