package types

// FeatureName identifies one numeric column of a FeatureRow.
type FeatureName string

const (
	FeatureRSI        FeatureName = "rsi"
	FeatureMACD       FeatureName = "macd"
	FeatureMACDSignal FeatureName = "macd_signal"
	FeatureBBMavg     FeatureName = "bb_mavg"
	FeatureBBHband    FeatureName = "bb_hband"
	FeatureBBLband    FeatureName = "bb_lband"
	FeatureATR        FeatureName = "atr"
	FeatureOBV        FeatureName = "obv"
	FeatureADX        FeatureName = "adx"
	FeatureADXPos     FeatureName = "adx_pos"
	FeatureADXNeg     FeatureName = "adx_neg"
	FeatureStochK     FeatureName = "stoch_k"
	FeatureStochD     FeatureName = "stoch_d"
	FeatureEMA        FeatureName = "ema"
	FeatureSMA        FeatureName = "sma"
)

// FeatureSet is an ordered list of feature names. Order is significant:
// correlation pruning always keeps the earlier of two correlated features.
type FeatureSet []FeatureName

// DefaultFeatureSet returns the standard candidate features in their canonical order.
func DefaultFeatureSet() FeatureSet {
	return FeatureSet{
		FeatureRSI, FeatureMACD, FeatureMACDSignal,
		FeatureBBMavg, FeatureBBHband, FeatureBBLband,
		FeatureATR, FeatureOBV,
		FeatureADX, FeatureADXPos, FeatureADXNeg,
		FeatureStochK, FeatureStochD,
	}
}

// Contains reports whether name is part of the set.
func (s FeatureSet) Contains(name FeatureName) bool {
	return s.Index(name) >= 0
}

// Index returns the position of name in the set, or -1.
func (s FeatureSet) Index(name FeatureName) int {
	for i, n := range s {
		if n == name {
			return i
		}
	}

	return -1
}

// Strings returns the names as plain strings, preserving order.
func (s FeatureSet) Strings() []string {
	out := make([]string, len(s))
	for i, n := range s {
		out[i] = string(n)
	}

	return out
}

// Clone returns an independent copy of the set.
func (s FeatureSet) Clone() FeatureSet {
	out := make(FeatureSet, len(s))
	copy(out, s)

	return out
}
