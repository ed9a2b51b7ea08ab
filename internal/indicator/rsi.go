package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-forecast/internal/types"
	"github.com/rxtech-lab/argo-forecast/pkg/errors"
)

// RSI represents the Relative Strength Index indicator.
type RSI struct {
	period int
}

// NewRSI creates a new RSI indicator with default configuration.
func NewRSI() Indicator {
	return &RSI{
		period: 14, // Default period
	}
}

// Name returns the name of the indicator.
func (r *RSI) Name() types.IndicatorType {
	return types.IndicatorTypeRSI
}

// Features implements Indicator.
func (r *RSI) Features() []types.FeatureName {
	return []types.FeatureName{types.FeatureRSI}
}

// Lookback implements Indicator. Price changes start at bar 1, so the first RSI
// value lands at index period.
func (r *RSI) Lookback() int {
	return r.period
}

// Config configures the RSI indicator. Expected parameters: period (int).
func (r *RSI) Config(params ...any) error {
	if len(params) < 1 {
		return errors.New(errors.ErrCodeMissingParameter, "Config expects at least 1 parameter: period (int)")
	}

	period, err := periodParam(params, 0, "period")
	if err != nil {
		return err
	}

	r.period = period

	return nil
}

// Compute implements Indicator.
func (r *RSI) Compute(series types.InstrumentSeries) (Columns, error) {
	return Columns{types.FeatureRSI: RSISeries(series.Closes(), r.period)}, nil
}

// RSISeries computes RSI with Wilder's smoothing. A window without losses reads 100.
func RSISeries(close []float64, period int) []float64 {
	out := nanSeries(len(close))
	if len(close) < period+1 {
		return out
	}

	// Calculate price changes
	gains := make([]float64, len(close))
	losses := make([]float64, len(close))

	gains[0], losses[0] = math.NaN(), math.NaN()

	for i := 1; i < len(close); i++ {
		change := close[i] - close[i-1]
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = -change
		}
	}

	avgGain := Wilder(gains, period)
	avgLoss := Wilder(losses, period)

	for i := range close {
		if math.IsNaN(avgGain[i]) || math.IsNaN(avgLoss[i]) {
			continue
		}

		if avgLoss[i] == 0 {
			out[i] = 100 // Perfect uptrend

			continue
		}

		rs := avgGain[i] / avgLoss[i]
		out[i] = 100 - (100 / (1 + rs))
	}

	return out
}
