package indicator

import (
	"github.com/rxtech-lab/argo-forecast/internal/types"
	"github.com/rxtech-lab/argo-forecast/pkg/errors"
)

// MA indicator implements the simple moving average of the close price.
type MA struct {
	period int
}

// NewMA creates a new MA indicator with default configuration.
func NewMA() Indicator {
	return &MA{
		period: 20,
	}
}

// Name returns the name of the indicator.
func (m *MA) Name() types.IndicatorType {
	return types.IndicatorTypeMA
}

// Features implements Indicator.
func (m *MA) Features() []types.FeatureName {
	return []types.FeatureName{types.FeatureSMA}
}

// Lookback implements Indicator.
func (m *MA) Lookback() int {
	return m.period - 1
}

// Config configures the MA indicator. Expected parameters: period (int).
func (m *MA) Config(params ...any) error {
	if len(params) != 1 {
		return errors.New(errors.ErrCodeMissingParameter, "Config expects 1 parameter: period (int)")
	}

	period, err := periodParam(params, 0, "period")
	if err != nil {
		return err
	}

	m.period = period

	return nil
}

// Compute implements Indicator.
func (m *MA) Compute(series types.InstrumentSeries) (Columns, error) {
	return Columns{types.FeatureSMA: SMA(series.Closes(), m.period)}, nil
}
