package types

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type IndicatorTestSuite struct {
	suite.Suite
}

func TestIndicatorSuite(t *testing.T) {
	suite.Run(t, new(IndicatorTestSuite))
}

func (suite *IndicatorTestSuite) TestIndicatorTypeConstants() {
	suite.Equal(IndicatorType("rsi"), IndicatorTypeRSI)
	suite.Equal(IndicatorType("macd"), IndicatorTypeMACD)
	suite.Equal(IndicatorType("bollinger_bands"), IndicatorTypeBollingerBands)
	suite.Equal(IndicatorType("stochastic_oscillator"), IndicatorTypeStochasticOscillator)
	suite.Equal(IndicatorType("adx"), IndicatorTypeADX)
	suite.Equal(IndicatorType("ema"), IndicatorTypeEMA)
	suite.Equal(IndicatorType("atr"), IndicatorTypeATR)
	suite.Equal(IndicatorType("ma"), IndicatorTypeMA)
	suite.Equal(IndicatorType("obv"), IndicatorTypeOBV)
}

func (suite *IndicatorTestSuite) TestFeatureNameAsString() {
	suite.Equal("rsi", string(FeatureRSI))
	suite.Equal("macd_signal", string(FeatureMACDSignal))
	suite.Equal("bb_hband", string(FeatureBBHband))
	suite.Equal("adx_neg", string(FeatureADXNeg))
	suite.Equal("stoch_d", string(FeatureStochD))
	suite.Equal([]string{"rsi", "obv"}, FeatureSet{FeatureRSI, FeatureOBV}.Strings())
}
