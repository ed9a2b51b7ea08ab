package types

import "fmt"

// Range is a half-open row interval [Start, End).
type Range struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
}

// Len returns the number of rows in the range.
func (r Range) Len() int {
	return r.End - r.Start
}

func (r Range) String() string {
	return fmt.Sprintf("[%d, %d)", r.Start, r.End)
}

// WalkForwardWindow is one retrain/evaluate step over the holdout table.
type WalkForwardWindow struct {
	Index int   `json:"index" yaml:"index"`
	Train Range `json:"train" yaml:"train"`
	Test  Range `json:"test" yaml:"test"`
}

// DropStats accounts for every bar of one instrument that did not become a FeatureRow.
// Input == UndefinedFeature + NoNextBar + Output always holds.
type DropStats struct {
	Symbol string `json:"symbol" yaml:"symbol"`
	Input  int    `json:"input" yaml:"input"`
	// UndefinedFeature counts rows where at least one indicator was undefined,
	// either because the lookback was not yet satisfied or the value was a computation gap.
	UndefinedFeature int `json:"undefined_feature" yaml:"undefined_feature"`
	// NoNextBar counts rows without a following bar to label against. The last bar of
	// a series is always counted here, whether or not its indicators were defined.
	NoNextBar int `json:"no_next_bar" yaml:"no_next_bar"`
	Output    int `json:"output" yaml:"output"`
}
