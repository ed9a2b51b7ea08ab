package indicator

import (
	"github.com/rxtech-lab/argo-forecast/internal/types"
	"github.com/rxtech-lab/argo-forecast/pkg/errors"
)

// ATR represents the Average True Range indicator.
type ATR struct {
	period int
}

// NewATR creates a new ATR indicator with default configuration.
func NewATR() Indicator {
	return &ATR{
		period: 14,
	}
}

// Name returns the name of the indicator.
func (a *ATR) Name() types.IndicatorType {
	return types.IndicatorTypeATR
}

// Features implements Indicator.
func (a *ATR) Features() []types.FeatureName {
	return []types.FeatureName{types.FeatureATR}
}

// Lookback implements Indicator.
func (a *ATR) Lookback() int {
	return a.period - 1
}

// Config configures the ATR indicator. Expected parameters: period (int).
func (a *ATR) Config(params ...any) error {
	if len(params) != 1 {
		return errors.New(errors.ErrCodeMissingParameter, "Config expects 1 parameter: period (int)")
	}

	period, err := periodParam(params, 0, "period")
	if err != nil {
		return err
	}

	a.period = period

	return nil
}

// Compute implements Indicator.
func (a *ATR) Compute(series types.InstrumentSeries) (Columns, error) {
	return Columns{
		types.FeatureATR: ATRSeries(series.Highs(), series.Lows(), series.Closes(), a.period),
	}, nil
}

// ATRSeries is Wilder's average of the true range.
func ATRSeries(high, low, close []float64, period int) []float64 {
	return Wilder(TrueRange(high, low, close), period)
}
