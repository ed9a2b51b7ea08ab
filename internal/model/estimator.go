package model

// Params holds estimator hyperparameters keyed by name.
type Params map[string]any

// Clone returns a shallow copy of the params.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}

	return out
}

// Estimator is a trainable binary classifier.
// Fit mutates the estimator; Predict and Score never do.
type Estimator interface {
	// Fit trains the estimator on rows X with labels y in {0, 1}.
	Fit(X [][]float64, y []int) error
	// Predict returns a label for each row of X.
	Predict(X [][]float64) ([]int, error)
	// Score returns the accuracy of Predict(X) against y.
	Score(X [][]float64, y []int) (float64, error)
	// Clone returns an unfitted estimator with the same hyperparameters.
	Clone() Estimator
	// Params returns the hyperparameters the estimator was built with.
	Params() Params
}

// Factory builds an unfitted estimator from hyperparameters.
type Factory func(params Params) (Estimator, error)
