package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type MarketTestSuite struct {
	suite.Suite
}

func TestMarketSuite(t *testing.T) {
	suite.Run(t, new(MarketTestSuite))
}

func (suite *MarketTestSuite) TestPriceBarStruct() {
	now := time.Now()
	data := PriceBar{
		Symbol: "AAPL",
		Time:   now,
		Open:   150.0,
		High:   155.0,
		Low:    148.0,
		Close:  152.5,
		Volume: 1000000.0,
	}

	suite.Equal("AAPL", data.Symbol)
	suite.Equal(now, data.Time)
	suite.Equal(150.0, data.Open)
	suite.Equal(155.0, data.High)
	suite.Equal(148.0, data.Low)
	suite.Equal(152.5, data.Close)
	suite.Equal(1000000.0, data.Volume)
}

func (suite *MarketTestSuite) TestSeriesColumns() {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	series := NewInstrumentSeries("AAPL", []PriceBar{
		{Symbol: "AAPL", Time: base, Open: 1, High: 3, Low: 0.5, Close: 2, Volume: 10},
		{Symbol: "AAPL", Time: base.AddDate(0, 0, 1), Open: 2, High: 4, Low: 1.5, Close: 3, Volume: 20},
	})

	suite.Equal([]float64{3, 4}, series.Highs())
	suite.Equal([]float64{0.5, 1.5}, series.Lows())
	suite.Equal([]float64{2, 3}, series.Closes())
	suite.Equal([]float64{10, 20}, series.Volumes())
}
