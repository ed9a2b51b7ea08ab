package features

import (
	"math"

	"github.com/rxtech-lab/argo-forecast/internal/indicator"
	"github.com/rxtech-lab/argo-forecast/internal/logger"
	"github.com/rxtech-lab/argo-forecast/internal/types"
	"github.com/rxtech-lab/argo-forecast/pkg/errors"
	"go.uber.org/zap"
)

// Engine turns the bar history of a single instrument into labelled feature rows.
type Engine struct {
	indicators []indicator.Indicator
	features   types.FeatureSet
	lookback   int
	log        *logger.Logger
}

// NewEngine resolves the indicators that produce features from the registry.
func NewEngine(registry indicator.IndicatorRegistry, features types.FeatureSet, log *logger.Logger) (*Engine, error) {
	if len(features) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "at least one feature is required")
	}

	seen := make(map[types.FeatureName]bool, len(features))
	for _, feature := range features {
		if seen[feature] {
			return nil, errors.Newf(errors.ErrCodeDuplicateFeature, "feature %s listed more than once", feature)
		}

		seen[feature] = true
	}

	indicators, err := registry.Resolve(features)
	if err != nil {
		return nil, err
	}

	lookback := 0
	for _, ind := range indicators {
		lookback = max(lookback, ind.Lookback())
	}

	return &Engine{
		indicators: indicators,
		features:   features.Clone(),
		lookback:   lookback,
		log:        log,
	}, nil
}

// Features returns the feature columns every produced row carries.
func (e *Engine) Features() types.FeatureSet {
	return e.features.Clone()
}

// Lookback returns the number of leading bars that can never produce a row.
func (e *Engine) Lookback() int {
	return e.lookback
}

// Compute calculates indicators and labels over one instrument's series.
//
// Rows are dropped, never imputed, when a feature is undefined (insufficient lookback
// or a computation gap) or when there is no next bar to derive the label from. The
// returned stats account for every input bar.
func (e *Engine) Compute(series types.InstrumentSeries) (types.FeatureTable, types.DropStats, error) {
	stats := types.DropStats{Symbol: series.Symbol, Input: series.Len()}

	if err := ValidateSeries(series); err != nil {
		return nil, stats, err
	}

	n := series.Len()
	if n == 0 {
		return types.FeatureTable{}, stats, nil
	}

	columns := make(indicator.Columns, len(e.features))

	for _, ind := range e.indicators {
		computed, err := ind.Compute(series)
		if err != nil {
			return nil, stats, errors.Wrapf(errors.ErrCodeIndicatorCalculation, err, "indicator %s failed for %s", ind.Name(), series.Symbol)
		}

		for feature, values := range computed {
			if len(values) != n {
				return nil, stats, errors.Newf(errors.ErrCodeMisalignedData, "indicator %s returned %d values for %s, expected %d", ind.Name(), len(values), feature, n)
			}

			columns[feature] = values
		}
	}

	closes := series.Closes()
	table := make(types.FeatureTable, 0, max(n-e.lookback-1, 0))

	for i := 0; i < n; i++ {
		if i == n-1 {
			stats.NoNextBar++

			continue
		}

		values, ok := e.rowValues(columns, i)
		if !ok {
			stats.UndefinedFeature++

			continue
		}

		label := 0
		if closes[i+1] > closes[i] {
			label = 1
		}

		table = append(table, types.FeatureRow{
			Symbol:   series.Symbol,
			Time:     series.Bars[i].Time,
			Close:    closes[i],
			Features: values,
			Label:    label,
		})
	}

	stats.Output = len(table)

	e.log.Debug("Computed features",
		zap.String("symbol", series.Symbol),
		zap.Int("input", stats.Input),
		zap.Int("undefined_feature", stats.UndefinedFeature),
		zap.Int("no_next_bar", stats.NoNextBar),
		zap.Int("output", stats.Output),
	)

	return table, stats, nil
}

func (e *Engine) rowValues(columns indicator.Columns, i int) (map[types.FeatureName]float64, bool) {
	values := make(map[types.FeatureName]float64, len(e.features))

	for _, feature := range e.features {
		value := columns[feature][i]
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return nil, false
		}

		values[feature] = value
	}

	return values, true
}

// ValidateSeries checks that every bar belongs to the series' instrument and that
// timestamps are strictly increasing.
func ValidateSeries(series types.InstrumentSeries) error {
	for i, bar := range series.Bars {
		if bar.Symbol != series.Symbol {
			return errors.Newf(errors.ErrCodeMixedInstruments, "bar %d of series %s belongs to %s", i, series.Symbol, bar.Symbol)
		}

		if i == 0 {
			continue
		}

		prev := series.Bars[i-1].Time
		if bar.Time.Equal(prev) {
			return errors.Newf(errors.ErrCodeDuplicateBar, "duplicate bar for %s at %s", series.Symbol, bar.Time)
		}

		if bar.Time.Before(prev) {
			return errors.Newf(errors.ErrCodeNonMonotonicTimestamps, "bars for %s are not increasing at index %d", series.Symbol, i)
		}
	}

	return nil
}
