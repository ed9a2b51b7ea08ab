package indicator

import (
	"github.com/rxtech-lab/argo-forecast/internal/types"
)

// OBV is the On-Balance Volume indicator. It has no parameters.
type OBV struct{}

// NewOBV creates a new OBV indicator.
func NewOBV() Indicator {
	return &OBV{}
}

// Name returns the name of the indicator.
func (o *OBV) Name() types.IndicatorType {
	return types.IndicatorTypeOBV
}

// Features implements Indicator.
func (o *OBV) Features() []types.FeatureName {
	return []types.FeatureName{types.FeatureOBV}
}

// Lookback implements Indicator.
func (o *OBV) Lookback() int {
	return 0
}

// Config implements Indicator. OBV accepts no parameters.
func (o *OBV) Config(_ ...any) error {
	return nil
}

// Compute implements Indicator.
func (o *OBV) Compute(series types.InstrumentSeries) (Columns, error) {
	return Columns{types.FeatureOBV: OBVSeries(series.Closes(), series.Volumes())}, nil
}

// OBVSeries accumulates volume, subtracting it on bars that close below the previous close.
// The first bar has nothing to compare with and adds its volume.
func OBVSeries(close, volume []float64) []float64 {
	out := make([]float64, len(close))

	var total float64

	for i := range close {
		if i > 0 && close[i] < close[i-1] {
			total -= volume[i]
		} else {
			total += volume[i]
		}

		out[i] = total
	}

	return out
}
