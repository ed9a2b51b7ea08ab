package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-forecast/internal/types"
	"github.com/rxtech-lab/argo-forecast/pkg/errors"
)

// BollingerBands indicator calculates upper, middle, and lower bands
// based on a moving average and standard deviation multiplier.
type BollingerBands struct {
	period     int
	stdDevMult float64
}

// NewBollingerBands creates a new Bollinger Bands indicator with default configuration.
func NewBollingerBands() Indicator {
	return &BollingerBands{
		period:     20,
		stdDevMult: 2.0,
	}
}

// Name returns the name of the indicator.
func (bb *BollingerBands) Name() types.IndicatorType {
	return types.IndicatorTypeBollingerBands
}

// Features implements Indicator.
func (bb *BollingerBands) Features() []types.FeatureName {
	return []types.FeatureName{types.FeatureBBMavg, types.FeatureBBHband, types.FeatureBBLband}
}

// Lookback implements Indicator.
func (bb *BollingerBands) Lookback() int {
	return bb.period - 1
}

// Config configures the Bollinger Bands indicator.
// Expected parameters: period (int), stdDevMultiplier (float64).
func (bb *BollingerBands) Config(params ...any) error {
	if len(params) != 2 {
		return errors.New(errors.ErrCodeMissingParameter, "Config expects 2 parameters: period (int), stdDevMultiplier (float64)")
	}

	period, err := periodParam(params, 0, "period")
	if err != nil {
		return err
	}

	stdDevMult, err := floatParam(params, 1, "stdDevMultiplier")
	if err != nil {
		return err
	}

	bb.period = period
	bb.stdDevMult = stdDevMult

	return nil
}

// Compute implements Indicator.
func (bb *BollingerBands) Compute(series types.InstrumentSeries) (Columns, error) {
	middle, upper, lower := BollingerSeries(series.Closes(), bb.period, bb.stdDevMult)

	return Columns{
		types.FeatureBBMavg:  middle,
		types.FeatureBBHband: upper,
		types.FeatureBBLband: lower,
	}, nil
}

// BollingerSeries returns the moving average and the bands mult population
// standard deviations above and below it.
func BollingerSeries(close []float64, period int, mult float64) (middle, upper, lower []float64) {
	middle = SMA(close, period)
	std := RollingStd(close, period)
	upper = nanSeries(len(close))
	lower = nanSeries(len(close))

	for i := range close {
		if math.IsNaN(middle[i]) || math.IsNaN(std[i]) {
			continue
		}

		upper[i] = middle[i] + mult*std[i]
		lower[i] = middle[i] - mult*std[i]
	}

	return middle, upper, lower
}
