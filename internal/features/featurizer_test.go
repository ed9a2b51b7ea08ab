package features

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-forecast/internal/indicator"
	"github.com/rxtech-lab/argo-forecast/internal/logger"
	"github.com/rxtech-lab/argo-forecast/internal/types"
	"github.com/rxtech-lab/argo-forecast/mocks"
	"github.com/rxtech-lab/argo-forecast/pkg/errors"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type FeaturizerTestSuite struct {
	suite.Suite
	log *logger.Logger
}

func TestFeaturizerSuite(t *testing.T) {
	suite.Run(t, new(FeaturizerTestSuite))
}

func (suite *FeaturizerTestSuite) SetupTest() {
	suite.log = logger.NewNopLogger()
}

func (suite *FeaturizerTestSuite) newFeaturizer(workers int) *Featurizer {
	engine, err := NewEngine(indicator.NewDefaultRegistry(), types.DefaultFeatureSet(), suite.log)
	suite.Require().NoError(err)

	return NewFeaturizer(engine, workers, suite.log)
}

func rowsOf(table types.FeatureTable, symbol string) types.FeatureTable {
	var out types.FeatureTable

	for _, row := range table {
		if row.Symbol == symbol {
			out = append(out, row)
		}
	}

	return out
}

func (suite *FeaturizerTestSuite) TestOutputSortedAndAccounted() {
	bars := mocks.GenerateDaily([]string{"MSFT", "AAPL", "GOOG"}, 150)

	result, err := suite.newFeaturizer(2).Featurize(context.Background(), bars)
	suite.Require().NoError(err)
	suite.Empty(result.Failures)
	suite.True(result.Table.IsSortedByTimeSymbol())
	suite.Equal([]string{"AAPL", "GOOG", "MSFT"}, result.Table.Symbols())

	suite.Require().Len(result.Stats, 3)
	total := 0

	for i, symbol := range []string{"AAPL", "GOOG", "MSFT"} {
		stats := result.Stats[i]
		suite.Equal(symbol, stats.Symbol)
		suite.Equal(150, stats.Input)
		suite.Equal(stats.Input, stats.UndefinedFeature+stats.NoNextBar+stats.Output)
		suite.Len(rowsOf(result.Table, symbol), stats.Output)
		total += stats.Output
	}

	suite.Len(result.Table, total)
}

func (suite *FeaturizerTestSuite) TestNoCrossInstrumentLeakage() {
	bars := mocks.GenerateDaily([]string{"AAPL", "MSFT"}, 120)

	before, err := suite.newFeaturizer(2).Featurize(context.Background(), bars)
	suite.Require().NoError(err)

	// distort every MSFT bar and add a third instrument; AAPL must not change
	changed := make([]types.PriceBar, 0, len(bars))
	for _, bar := range bars {
		if bar.Symbol == "MSFT" {
			bar.Close *= 3
			bar.High *= 3
			bar.Low *= 0.5
			bar.Volume *= 10
		}

		changed = append(changed, bar)
	}

	changed = append(changed, mocks.GenerateDaily([]string{"TSLA"}, 90)...)

	after, err := suite.newFeaturizer(2).Featurize(context.Background(), changed)
	suite.Require().NoError(err)

	suite.Equal(rowsOf(before.Table, "AAPL"), rowsOf(after.Table, "AAPL"))
	suite.NotEqual(rowsOf(before.Table, "MSFT"), rowsOf(after.Table, "MSFT"))
}

func (suite *FeaturizerTestSuite) TestDeterministicAcrossWorkersAndInputOrder() {
	bars := mocks.GenerateDaily([]string{"AAPL", "MSFT", "GOOG", "AMZN"}, 100)

	serial, err := suite.newFeaturizer(1).Featurize(context.Background(), bars)
	suite.Require().NoError(err)

	parallel, err := suite.newFeaturizer(4).Featurize(context.Background(), bars)
	suite.Require().NoError(err)
	suite.Equal(serial.Table, parallel.Table)
	suite.Equal(serial.Stats, parallel.Stats)

	shuffled := make([]types.PriceBar, len(bars))
	copy(shuffled, bars)
	rand.New(rand.NewSource(7)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	fromShuffled, err := suite.newFeaturizer(3).Featurize(context.Background(), shuffled)
	suite.Require().NoError(err)
	suite.Equal(serial.Table, fromShuffled.Table)
}

func (suite *FeaturizerTestSuite) TestDuplicateBarIsFatal() {
	bars := mocks.GenerateDaily([]string{"AAPL", "MSFT"}, 60)
	bars = append(bars, bars[10])

	result, err := suite.newFeaturizer(2).Featurize(context.Background(), bars)
	suite.Nil(result)
	suite.True(errors.HasCode(err, errors.ErrCodeDuplicateBar))
}

func (suite *FeaturizerTestSuite) TestEmptySymbolRejected() {
	_, err := Partition([]types.PriceBar{{Symbol: "", Time: time.Now()}})
	suite.True(errors.HasCode(err, errors.ErrCodeMixedInstruments))
}

func (suite *FeaturizerTestSuite) TestEmptyInput() {
	result, err := suite.newFeaturizer(2).Featurize(context.Background(), nil)
	suite.Require().NoError(err)
	suite.Empty(result.Table)
	suite.Empty(result.Stats)
	suite.Empty(result.Failures)
}

func (suite *FeaturizerTestSuite) TestShortInstrumentContributesNothing() {
	bars := mocks.GenerateDaily([]string{"AAPL"}, 120)
	bars = append(bars, mocks.GenerateDaily([]string{"NEW"}, 20)...)

	result, err := suite.newFeaturizer(2).Featurize(context.Background(), bars)
	suite.Require().NoError(err)
	suite.Empty(result.Failures)
	suite.Empty(rowsOf(result.Table, "NEW"))
	suite.Equal(types.DropStats{Symbol: "NEW", Input: 20, UndefinedFeature: 19, NoNextBar: 1}, result.Stats[1])
}

func (suite *FeaturizerTestSuite) TestIndicatorFailureIsIsolated() {
	ctrl := gomock.NewController(suite.T())
	defer ctrl.Finish()

	rsi := indicator.NewRSI()
	failing := mocks.NewMockIndicator(ctrl)
	failing.EXPECT().Name().Return(types.IndicatorTypeRSI).AnyTimes()
	failing.EXPECT().Features().Return([]types.FeatureName{types.FeatureRSI}).AnyTimes()
	failing.EXPECT().Lookback().Return(rsi.Lookback()).AnyTimes()
	failing.EXPECT().Compute(gomock.Any()).DoAndReturn(func(series types.InstrumentSeries) (indicator.Columns, error) {
		if series.Symbol == "BAD" {
			return nil, fmt.Errorf("feed gap")
		}

		return rsi.Compute(series)
	}).AnyTimes()

	registry := indicator.NewIndicatorRegistry()
	suite.Require().NoError(registry.RegisterIndicator(failing))

	engine, err := NewEngine(registry, types.FeatureSet{types.FeatureRSI}, suite.log)
	suite.Require().NoError(err)

	var mu sync.Mutex
	done := make(map[string]error)

	featurizer := NewFeaturizer(engine, 2, suite.log)
	featurizer.OnInstrumentDone(func(symbol string, _ types.DropStats, err error) {
		mu.Lock()
		defer mu.Unlock()
		done[symbol] = err
	})

	bars := mocks.GenerateDaily([]string{"AAPL", "BAD", "MSFT"}, 60)
	result, err := featurizer.Featurize(context.Background(), bars)
	suite.Require().NoError(err)

	suite.Require().Len(result.Failures, 1)
	suite.Equal("BAD", result.Failures[0].Symbol)
	suite.True(errors.HasCode(result.Failures[0].Err, errors.ErrCodeIndicatorCalculation))
	suite.Equal([]string{"AAPL", "MSFT"}, result.Table.Symbols())
	suite.Len(result.Stats, 2)

	suite.Len(done, 3)
	suite.Error(done["BAD"])
	suite.NoError(done["AAPL"])
}

func (suite *FeaturizerTestSuite) TestMisalignedIndicatorOutputIsIsolated() {
	ctrl := gomock.NewController(suite.T())
	defer ctrl.Finish()

	short := mocks.NewMockIndicator(ctrl)
	short.EXPECT().Name().Return(types.IndicatorTypeOBV).AnyTimes()
	short.EXPECT().Features().Return([]types.FeatureName{types.FeatureOBV}).AnyTimes()
	short.EXPECT().Lookback().Return(0).AnyTimes()
	short.EXPECT().Compute(gomock.Any()).Return(indicator.Columns{types.FeatureOBV: {1, 2, 3}}, nil).AnyTimes()

	registry := indicator.NewIndicatorRegistry()
	suite.Require().NoError(registry.RegisterIndicator(short))

	engine, err := NewEngine(registry, types.FeatureSet{types.FeatureOBV}, suite.log)
	suite.Require().NoError(err)

	result, err := NewFeaturizer(engine, 1, suite.log).Featurize(context.Background(), mocks.GenerateDaily([]string{"AAPL"}, 10))
	suite.Require().NoError(err)
	suite.Require().Len(result.Failures, 1)
	suite.True(errors.HasCode(result.Failures[0].Err, errors.ErrCodeMisalignedData))
	suite.Empty(result.Table)
}

func (suite *FeaturizerTestSuite) TestCancelledContext() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := suite.newFeaturizer(2).Featurize(ctx, mocks.GenerateDaily([]string{"AAPL", "MSFT"}, 50))
	suite.ErrorIs(err, context.Canceled)
}

func (suite *FeaturizerTestSuite) TestVerifyIsolation() {
	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	row := func(symbol string, day int) types.FeatureRow {
		return types.FeatureRow{Symbol: symbol, Time: base.AddDate(0, 0, day)}
	}

	stats := []types.DropStats{{Symbol: "A", Output: 2}, {Symbol: "B", Output: 1}}

	suite.NoError(VerifyIsolation(types.FeatureTable{row("A", 0), row("B", 0), row("A", 1)}, stats))

	tests := []struct {
		name  string
		table types.FeatureTable
	}{
		{name: "count mismatch", table: types.FeatureTable{row("A", 0), row("A", 1), row("B", 0), row("B", 1)}},
		{name: "unknown instrument", table: types.FeatureTable{row("A", 0), row("A", 1), row("B", 0), row("C", 0)}},
		{name: "repeated time", table: types.FeatureTable{row("A", 0), row("A", 0), row("B", 0)}},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			err := VerifyIsolation(tc.table, stats)
			suite.True(errors.HasCode(err, errors.ErrCodeCrossInstrumentLeak), "got %v", err)
		})
	}
}
