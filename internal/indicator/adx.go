package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-forecast/internal/types"
	"github.com/rxtech-lab/argo-forecast/pkg/errors"
)

// ADX is the Average Directional Index with its +DI and -DI components.
type ADX struct {
	period int
}

// NewADX creates a new ADX indicator with default configuration.
func NewADX() Indicator {
	return &ADX{
		period: 14,
	}
}

// Name returns the name of the indicator.
func (a *ADX) Name() types.IndicatorType {
	return types.IndicatorTypeADX
}

// Features implements Indicator.
func (a *ADX) Features() []types.FeatureName {
	return []types.FeatureName{types.FeatureADX, types.FeatureADXPos, types.FeatureADXNeg}
}

// Lookback implements Indicator. DI needs period moves, ADX smooths period DX values on top.
func (a *ADX) Lookback() int {
	return 2*a.period - 1
}

// Config configures the ADX indicator. Expected parameters: period (int).
func (a *ADX) Config(params ...any) error {
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
func (a *ADX) Compute(series types.InstrumentSeries) (Columns, error) {
	adx, plusDI, minusDI := ADXSeries(series.Highs(), series.Lows(), series.Closes(), a.period)

	return Columns{
		types.FeatureADX:    adx,
		types.FeatureADXPos: plusDI,
		types.FeatureADXNeg: minusDI,
	}, nil
}

// ADXSeries computes ADX, +DI and -DI using Wilder's smoothing.
func ADXSeries(high, low, close []float64, period int) (adx, plusDI, minusDI []float64) {
	n := len(close)
	plusDI = nanSeries(n)
	minusDI = nanSeries(n)

	tr := TrueRange(high, low, close)
	plusDM := nanSeries(n)
	minusDM := nanSeries(n)

	if n > 0 {
		tr[0] = math.NaN()
	}

	for i := 1; i < n; i++ {
		up := high[i] - high[i-1]
		down := low[i-1] - low[i]

		plusDM[i], minusDM[i] = 0, 0
		if up > down && up > 0 {
			plusDM[i] = up
		}

		if down > up && down > 0 {
			minusDM[i] = down
		}
	}

	smoothTR := Wilder(tr, period)
	smoothPlus := Wilder(plusDM, period)
	smoothMinus := Wilder(minusDM, period)

	dx := nanSeries(n)

	for i := 0; i < n; i++ {
		if math.IsNaN(smoothTR[i]) || smoothTR[i] == 0 {
			continue
		}

		plusDI[i] = 100 * smoothPlus[i] / smoothTR[i]
		minusDI[i] = 100 * smoothMinus[i] / smoothTR[i]

		sum := plusDI[i] + minusDI[i]
		if sum == 0 {
			dx[i] = 0

			continue
		}

		dx[i] = 100 * math.Abs(plusDI[i]-minusDI[i]) / sum
	}

	return Wilder(dx, period), plusDI, minusDI
}
