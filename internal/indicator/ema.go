package indicator

import (
	"github.com/rxtech-lab/argo-forecast/internal/types"
	"github.com/rxtech-lab/argo-forecast/pkg/errors"
)

// EMAIndicator implements the Exponential Moving Average of the close price.
type EMAIndicator struct {
	period int
}

// NewEMA creates a new EMA indicator with default configuration.
func NewEMA() Indicator {
	return &EMAIndicator{
		period: 20,
	}
}

// Name returns the name of the indicator.
func (e *EMAIndicator) Name() types.IndicatorType {
	return types.IndicatorTypeEMA
}

// Features implements Indicator.
func (e *EMAIndicator) Features() []types.FeatureName {
	return []types.FeatureName{types.FeatureEMA}
}

// Lookback implements Indicator.
func (e *EMAIndicator) Lookback() int {
	return e.period - 1
}

// Config configures the EMA indicator. Expected parameters: period (int).
func (e *EMAIndicator) Config(params ...any) error {
	if len(params) != 1 {
		return errors.New(errors.ErrCodeMissingParameter, "Config expects 1 parameter: period (int)")
	}

	period, err := periodParam(params, 0, "period")
	if err != nil {
		return err
	}

	e.period = period

	return nil
}

// Compute implements Indicator.
func (e *EMAIndicator) Compute(series types.InstrumentSeries) (Columns, error) {
	return Columns{types.FeatureEMA: EMA(series.Closes(), e.period)}, nil
}
