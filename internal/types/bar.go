package types

import (
	"sort"
	"time"
)

// PriceBar is a single OHLCV observation for one instrument.
type PriceBar struct {
	Symbol string    `csv:"symbol" json:"symbol"`
	Time   time.Time `csv:"time" json:"time"`
	Open   float64   `csv:"open" json:"open"`
	High   float64   `csv:"high" json:"high"`
	Low    float64   `csv:"low" json:"low"`
	Close  float64   `csv:"close" json:"close"`
	Volume float64   `csv:"volume" json:"volume"`
}

// InstrumentSeries is the time-ordered bar history of exactly one instrument.
// A series is never mutated once built; derived values are written to new slices.
type InstrumentSeries struct {
	Symbol string
	Bars   []PriceBar
}

// NewInstrumentSeries copies bars into a new series sorted ascending by time.
// The input slice is left untouched.
func NewInstrumentSeries(symbol string, bars []PriceBar) InstrumentSeries {
	owned := make([]PriceBar, len(bars))
	copy(owned, bars)

	sort.SliceStable(owned, func(i, j int) bool {
		return owned[i].Time.Before(owned[j].Time)
	})

	return InstrumentSeries{
		Symbol: symbol,
		Bars:   owned,
	}
}

// Len returns the number of bars in the series.
func (s InstrumentSeries) Len() int {
	return len(s.Bars)
}

// Closes returns the close prices aligned to the series.
func (s InstrumentSeries) Closes() []float64 {
	return s.column(func(b PriceBar) float64 { return b.Close })
}

// Highs returns the high prices aligned to the series.
func (s InstrumentSeries) Highs() []float64 {
	return s.column(func(b PriceBar) float64 { return b.High })
}

// Lows returns the low prices aligned to the series.
func (s InstrumentSeries) Lows() []float64 {
	return s.column(func(b PriceBar) float64 { return b.Low })
}

// Volumes returns the traded volumes aligned to the series.
func (s InstrumentSeries) Volumes() []float64 {
	return s.column(func(b PriceBar) float64 { return b.Volume })
}

func (s InstrumentSeries) column(get func(PriceBar) float64) []float64 {
	out := make([]float64, len(s.Bars))
	for i, bar := range s.Bars {
		out[i] = get(bar)
	}

	return out
}
