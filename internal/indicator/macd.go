package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-forecast/internal/types"
	"github.com/rxtech-lab/argo-forecast/pkg/errors"
)

// MACD represents the Moving Average Convergence Divergence indicator.
type MACD struct {
	fastPeriod   int
	slowPeriod   int
	signalPeriod int
}

// NewMACD creates a new MACD indicator with default configuration.
func NewMACD() Indicator {
	return &MACD{
		fastPeriod:   12,
		slowPeriod:   26,
		signalPeriod: 9,
	}
}

// Name returns the name of the indicator.
func (m *MACD) Name() types.IndicatorType {
	return types.IndicatorTypeMACD
}

// Features implements Indicator.
func (m *MACD) Features() []types.FeatureName {
	return []types.FeatureName{types.FeatureMACD, types.FeatureMACDSignal}
}

// Lookback implements Indicator. The signal line is an EMA of the MACD line and
// only starts once the slow EMA is defined.
func (m *MACD) Lookback() int {
	return m.slowPeriod - 1 + m.signalPeriod - 1
}

// Config configures the MACD indicator.
// Expected parameters: fastPeriod (int), slowPeriod (int), signalPeriod (int).
func (m *MACD) Config(params ...any) error {
	if len(params) != 3 {
		return errors.New(errors.ErrCodeMissingParameter, "Config expects 3 parameters: fastPeriod (int), slowPeriod (int), signalPeriod (int)")
	}

	fastPeriod, err := periodParam(params, 0, "fastPeriod")
	if err != nil {
		return err
	}

	slowPeriod, err := periodParam(params, 1, "slowPeriod")
	if err != nil {
		return err
	}

	signalPeriod, err := periodParam(params, 2, "signalPeriod")
	if err != nil {
		return err
	}

	if fastPeriod >= slowPeriod {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "fastPeriod (%d) must be less than slowPeriod (%d)", fastPeriod, slowPeriod)
	}

	m.fastPeriod = fastPeriod
	m.slowPeriod = slowPeriod
	m.signalPeriod = signalPeriod

	return nil
}

// Compute implements Indicator.
func (m *MACD) Compute(series types.InstrumentSeries) (Columns, error) {
	line, signal := MACDSeries(series.Closes(), m.fastPeriod, m.slowPeriod, m.signalPeriod)

	return Columns{
		types.FeatureMACD:       line,
		types.FeatureMACDSignal: signal,
	}, nil
}

// MACDSeries returns the MACD line (fast EMA - slow EMA) and its signal line.
func MACDSeries(close []float64, fast, slow, signal int) (line, signalLine []float64) {
	fastEMA := EMA(close, fast)
	slowEMA := EMA(close, slow)

	line = nanSeries(len(close))
	for i := range close {
		if math.IsNaN(fastEMA[i]) || math.IsNaN(slowEMA[i]) {
			continue
		}

		line[i] = fastEMA[i] - slowEMA[i]
	}

	return line, EMA(line, signal)
}
