package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-forecast/internal/types"
	"github.com/rxtech-lab/argo-forecast/pkg/errors"
)

// Stochastic is the stochastic oscillator (%K and its moving average %D).
type Stochastic struct {
	period       int
	smoothPeriod int
}

// NewStochastic creates a new stochastic oscillator with default configuration.
func NewStochastic() Indicator {
	return &Stochastic{
		period:       14,
		smoothPeriod: 3,
	}
}

// Name returns the name of the indicator.
func (s *Stochastic) Name() types.IndicatorType {
	return types.IndicatorTypeStochasticOscillator
}

// Features implements Indicator.
func (s *Stochastic) Features() []types.FeatureName {
	return []types.FeatureName{types.FeatureStochK, types.FeatureStochD}
}

// Lookback implements Indicator.
func (s *Stochastic) Lookback() int {
	return s.period - 1 + s.smoothPeriod - 1
}

// Config configures the oscillator. Expected parameters: period (int), smoothPeriod (int).
func (s *Stochastic) Config(params ...any) error {
	if len(params) != 2 {
		return errors.New(errors.ErrCodeMissingParameter, "Config expects 2 parameters: period (int), smoothPeriod (int)")
	}

	period, err := periodParam(params, 0, "period")
	if err != nil {
		return err
	}

	smoothPeriod, err := periodParam(params, 1, "smoothPeriod")
	if err != nil {
		return err
	}

	s.period = period
	s.smoothPeriod = smoothPeriod

	return nil
}

// Compute implements Indicator.
func (s *Stochastic) Compute(series types.InstrumentSeries) (Columns, error) {
	k, d := StochasticSeries(series.Highs(), series.Lows(), series.Closes(), s.period, s.smoothPeriod)

	return Columns{
		types.FeatureStochK: k,
		types.FeatureStochD: d,
	}, nil
}

// StochasticSeries returns %K and %D. A flat window (highest == lowest) leaves %K undefined.
func StochasticSeries(high, low, close []float64, period, smoothPeriod int) (k, d []float64) {
	highest := RollingMax(high, period)
	lowest := RollingMin(low, period)
	k = nanSeries(len(close))

	for i := range close {
		if math.IsNaN(highest[i]) || math.IsNaN(lowest[i]) {
			continue
		}

		span := highest[i] - lowest[i]
		if span == 0 {
			continue
		}

		k[i] = 100 * (close[i] - lowest[i]) / span
	}

	return k, SMA(k, smoothPeriod)
}
