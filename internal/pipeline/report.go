package pipeline

import (
	"time"

	"github.com/rxtech-lab/argo-forecast/internal/features"
	"github.com/rxtech-lab/argo-forecast/internal/model"
	"github.com/rxtech-lab/argo-forecast/internal/selection"
	"github.com/rxtech-lab/argo-forecast/internal/tuning"
	"github.com/rxtech-lab/argo-forecast/internal/types"
	"github.com/rxtech-lab/argo-forecast/internal/walkforward"
)

// FeatureImportance is the weight of one kept feature in the tuned model.
type FeatureImportance struct {
	Feature    types.FeatureName `json:"feature" yaml:"feature"`
	Importance float64           `json:"importance" yaml:"importance"`
}

// InstrumentError describes an instrument that could not be featurized.
type InstrumentError struct {
	Symbol string `json:"symbol" yaml:"symbol"`
	Error  string `json:"error" yaml:"error"`
}

// Report is the outcome of one pipeline run.
type Report struct {
	RunID       string    `json:"run_id" yaml:"run_id"`
	StartedAt   time.Time `json:"started_at" yaml:"started_at"`
	CompletedAt time.Time `json:"completed_at" yaml:"completed_at"`

	Instruments []types.DropStats `json:"instruments" yaml:"instruments"`
	Failures    []InstrumentError `json:"failures,omitempty" yaml:"failures,omitempty"`
	Rows        int               `json:"rows" yaml:"rows"`

	Selection *selection.Selection `json:"selection" yaml:"selection"`

	SplitBoundary time.Time `json:"split_boundary" yaml:"split_boundary"`
	TrainRows     int       `json:"train_rows" yaml:"train_rows"`
	HoldoutRows   int       `json:"holdout_rows" yaml:"holdout_rows"`

	BestParams        model.Params        `json:"best_params" yaml:"best_params"`
	CVScore           float64             `json:"cv_score" yaml:"cv_score"`
	CVResults         []tuning.CVResult   `json:"cv_results" yaml:"cv_results"`
	TrainAccuracy     float64             `json:"train_accuracy" yaml:"train_accuracy"`
	HoldoutAccuracy   float64             `json:"holdout_accuracy" yaml:"holdout_accuracy"`
	FeatureImportance []FeatureImportance `json:"feature_importance,omitempty" yaml:"feature_importance,omitempty"`

	WalkForward *walkforward.Result `json:"walk_forward" yaml:"walk_forward"`
	// WalkForwardMean is nil when no window fit inside the holdout rows.
	WalkForwardMean *float64 `json:"walk_forward_mean,omitempty" yaml:"walk_forward_mean,omitempty"`
}

func instrumentErrors(failures []features.InstrumentFailure) []InstrumentError {
	if len(failures) == 0 {
		return nil
	}

	out := make([]InstrumentError, len(failures))
	for i, f := range failures {
		out[i] = InstrumentError{Symbol: f.Symbol, Error: f.Err.Error()}
	}

	return out
}
