package features

import (
	"context"
	"runtime"
	"sort"

	"github.com/rxtech-lab/argo-forecast/internal/logger"
	"github.com/rxtech-lab/argo-forecast/internal/types"
	"github.com/rxtech-lab/argo-forecast/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// InstrumentFailure records an instrument whose feature computation failed.
// Other instruments are still processed.
type InstrumentFailure struct {
	Symbol string
	Err    error
}

// Result is the outcome of featurizing a multi-instrument dataset.
type Result struct {
	// Table is sorted by (time, symbol).
	Table types.FeatureTable
	// Stats holds one entry per successfully processed instrument, sorted by symbol.
	Stats []types.DropStats
	// Failures holds instruments whose computation failed, sorted by symbol.
	Failures []InstrumentFailure
}

// OnInstrumentDoneCallback is called after each instrument finishes, from the worker goroutine.
type OnInstrumentDoneCallback func(symbol string, stats types.DropStats, err error)

// Featurizer applies an Engine independently to each instrument of a combined dataset.
type Featurizer struct {
	engine  *Engine
	workers int
	log     *logger.Logger
	onDone  OnInstrumentDoneCallback
}

// NewFeaturizer creates a featurizer. workers <= 0 uses GOMAXPROCS.
func NewFeaturizer(engine *Engine, workers int, log *logger.Logger) *Featurizer {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	return &Featurizer{
		engine:  engine,
		workers: workers,
		log:     log,
		onDone:  nil,
	}
}

// OnInstrumentDone registers a progress callback.
func (f *Featurizer) OnInstrumentDone(callback OnInstrumentDoneCallback) {
	f.onDone = callback
}

// Featurize partitions bars by instrument, computes features for each partition in
// isolation and merges the results into one table sorted by (time, symbol).
//
// Duplicate (symbol, time) bars abort the run before any feature is computed. An error
// from a single instrument's computation is recorded in Result.Failures instead.
func (f *Featurizer) Featurize(ctx context.Context, bars []types.PriceBar) (*Result, error) {
	partitions, err := Partition(bars)
	if err != nil {
		return nil, err
	}

	type outcome struct {
		table types.FeatureTable
		stats types.DropStats
		err   error
	}

	outcomes := make([]outcome, len(partitions))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.workers)

	for i, series := range partitions {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			table, stats, err := f.engine.Compute(series)
			outcomes[i] = outcome{table: table, stats: stats, err: err}

			if f.onDone != nil {
				f.onDone(series.Symbol, stats, err)
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &Result{
		Table:    types.FeatureTable{},
		Stats:    make([]types.DropStats, 0, len(partitions)),
		Failures: nil,
	}

	for i, out := range outcomes {
		symbol := partitions[i].Symbol
		if out.err != nil {
			f.log.Warn("Feature computation failed for instrument",
				zap.String("symbol", symbol),
				zap.Error(out.err),
			)
			result.Failures = append(result.Failures, InstrumentFailure{Symbol: symbol, Err: out.err})

			continue
		}

		if out.stats.Output == 0 {
			f.log.Info("Instrument produced no rows",
				zap.String("symbol", symbol),
				zap.Int("bars", out.stats.Input),
				zap.Int("lookback", f.engine.Lookback()),
			)
		}

		result.Stats = append(result.Stats, out.stats)
		result.Table = append(result.Table, out.table...)
	}

	result.Table.SortByTimeSymbol()

	if err := VerifyIsolation(result.Table, result.Stats); err != nil {
		return nil, err
	}

	f.log.Info("Featurized instruments",
		zap.Int("instruments", len(partitions)),
		zap.Int("failed", len(result.Failures)),
		zap.Int("rows", len(result.Table)),
	)

	return result, nil
}

// Partition groups bars by symbol into time-sorted series ordered by symbol.
// Each series owns a copy of its bars.
func Partition(bars []types.PriceBar) ([]types.InstrumentSeries, error) {
	groups := make(map[string][]types.PriceBar)

	for i, bar := range bars {
		if bar.Symbol == "" {
			return nil, errors.Newf(errors.ErrCodeMixedInstruments, "bar %d has no symbol", i)
		}

		groups[bar.Symbol] = append(groups[bar.Symbol], bar)
	}

	symbols := make([]string, 0, len(groups))
	for symbol := range groups {
		symbols = append(symbols, symbol)
	}

	sort.Strings(symbols)

	partitions := make([]types.InstrumentSeries, len(symbols))
	for i, symbol := range symbols {
		series := types.NewInstrumentSeries(symbol, groups[symbol])
		if err := ValidateSeries(series); err != nil {
			return nil, err
		}

		partitions[i] = series
	}

	return partitions, nil
}

// VerifyIsolation checks the merged table against the per-instrument stats: each
// instrument's rows must be strictly increasing in time and match the row count its
// own computation reported. A mismatch means rows crossed instrument boundaries.
func VerifyIsolation(table types.FeatureTable, stats []types.DropStats) error {
	expected := make(map[string]int, len(stats))
	for _, s := range stats {
		expected[s.Symbol] = s.Output
	}

	counts := make(map[string]int, len(stats))
	last := make(map[string]int, len(stats))

	for i, row := range table {
		if _, ok := expected[row.Symbol]; !ok {
			return errors.Newf(errors.ErrCodeCrossInstrumentLeak, "row %d belongs to unknown instrument %s", i, row.Symbol)
		}

		if prev, ok := last[row.Symbol]; ok && !table[prev].Time.Before(row.Time) {
			return errors.Newf(errors.ErrCodeCrossInstrumentLeak, "rows of %s are not strictly increasing at %s", row.Symbol, row.Time)
		}

		last[row.Symbol] = i
		counts[row.Symbol]++
	}

	for symbol, want := range expected {
		if counts[symbol] != want {
			return errors.Newf(errors.ErrCodeCrossInstrumentLeak, "instrument %s has %d rows in the merged table, computed %d", symbol, counts[symbol], want)
		}
	}

	return nil
}
