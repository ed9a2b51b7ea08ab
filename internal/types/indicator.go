package types

type IndicatorType string

const (
	IndicatorTypeRSI                   IndicatorType = "rsi"
	IndicatorTypeMACD                  IndicatorType = "macd"
	IndicatorTypeBollingerBands        IndicatorType = "bollinger_bands"
	IndicatorTypeStochasticOscillator IndicatorType = "stochastic_oscillator"
	IndicatorTypeADX                   IndicatorType = "adx"
	IndicatorTypeEMA                   IndicatorType = "ema"
	IndicatorTypeATR                   IndicatorType = "atr"
	IndicatorTypeMA                    IndicatorType = "ma"
	IndicatorTypeOBV                   IndicatorType = "obv"
)
