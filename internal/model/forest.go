package model

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-forecast/pkg/errors"
)

const (
	MaxFeaturesSqrt = "sqrt"
	MaxFeaturesLog2 = "log2"
	MaxFeaturesAll  = "all"
)

// Hyperparameter names understood by NewRandomForestFromParams.
const (
	ParamNEstimators     = "n_estimators"
	ParamMaxDepth        = "max_depth"
	ParamMinSamplesSplit = "min_samples_split"
	ParamMinSamplesLeaf  = "min_samples_leaf"
	ParamMaxFeatures     = "max_features"
	ParamRandomState     = "random_state"
)

// RandomForestConfig holds the hyperparameters of a RandomForest.
type RandomForestConfig struct {
	NEstimators     int
	MaxDepth        optional.Option[int]
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     string
	Seed            int64
}

// DefaultRandomForestConfig returns the defaults used when a param is not given.
func DefaultRandomForestConfig() RandomForestConfig {
	return RandomForestConfig{
		NEstimators:     100,
		MaxDepth:        optional.None[int](),
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		MaxFeatures:     MaxFeaturesSqrt,
		Seed:            42,
	}
}

// Validate checks that the configuration can build a forest.
func (c RandomForestConfig) Validate() error {
	if c.NEstimators < 1 {
		return errors.Newf(errors.ErrCodeInvalidModelSpec, "n_estimators must be at least 1, got %d", c.NEstimators)
	}

	if c.MaxDepth.IsSome() && c.MaxDepth.Unwrap() < 1 {
		return errors.Newf(errors.ErrCodeInvalidModelSpec, "max_depth must be at least 1, got %d", c.MaxDepth.Unwrap())
	}

	if c.MinSamplesSplit < 2 {
		return errors.Newf(errors.ErrCodeInvalidModelSpec, "min_samples_split must be at least 2, got %d", c.MinSamplesSplit)
	}

	if c.MinSamplesLeaf < 1 {
		return errors.Newf(errors.ErrCodeInvalidModelSpec, "min_samples_leaf must be at least 1, got %d", c.MinSamplesLeaf)
	}

	switch c.MaxFeatures {
	case MaxFeaturesSqrt, MaxFeaturesLog2, MaxFeaturesAll:
	default:
		return errors.Newf(errors.ErrCodeInvalidModelSpec, "unknown max_features %q", c.MaxFeatures)
	}

	return nil
}

// RandomForest is a bagged ensemble of CART trees.
type RandomForest struct {
	config      RandomForestConfig
	trees       []*decisionTree
	width       int
	importances []float64
}

// NewRandomForest creates an unfitted forest.
func NewRandomForest(config RandomForestConfig) (*RandomForest, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &RandomForest{config: config}, nil
}

// NewRandomForestFromParams builds a forest from grid params, filling
// anything missing from DefaultRandomForestConfig. It satisfies Factory.
func NewRandomForestFromParams(params Params) (Estimator, error) {
	config := DefaultRandomForestConfig()

	for key, value := range params {
		var err error

		switch key {
		case ParamNEstimators:
			config.NEstimators, err = intParam(key, value)
		case ParamMinSamplesSplit:
			config.MinSamplesSplit, err = intParam(key, value)
		case ParamMinSamplesLeaf:
			config.MinSamplesLeaf, err = intParam(key, value)
		case ParamRandomState:
			var seed int
			seed, err = intParam(key, value)
			config.Seed = int64(seed)
		case ParamMaxDepth:
			config.MaxDepth, err = depthParam(value)
		case ParamMaxFeatures:
			s, ok := value.(string)
			if !ok {
				err = errors.Newf(errors.ErrCodeInvalidModelSpec, "%s must be a string, got %T", key, value)
			}

			config.MaxFeatures = strings.ToLower(s)
		default:
			err = errors.Newf(errors.ErrCodeInvalidModelSpec, "unknown random forest parameter %q", key)
		}

		if err != nil {
			return nil, err
		}
	}

	return NewRandomForest(config)
}

// Fit grows NEstimators trees on bootstrap samples of X.
func (f *RandomForest) Fit(X [][]float64, y []int) error {
	width, err := validateSample(X, y)
	if err != nil {
		return err
	}

	cfg := treeConfig{
		minSamplesSplit: f.config.MinSamplesSplit,
		minSamplesLeaf:  f.config.MinSamplesLeaf,
		maxFeatures:     featureCount(f.config.MaxFeatures, width),
	}

	if f.config.MaxDepth.IsSome() {
		cfg.maxDepth = f.config.MaxDepth.Unwrap()
	}

	n := len(X)
	trees := make([]*decisionTree, f.config.NEstimators)

	for t := range trees {
		rng := rand.New(rand.NewSource(f.config.Seed + int64(t)))

		rows := make([]int, n)
		for i := range rows {
			rows[i] = rng.Intn(n)
		}

		trees[t] = growTree(X, y, rows, cfg, rng)
	}

	importances := make([]float64, width)
	for _, tree := range trees {
		for i, v := range tree.importances {
			importances[i] += v / float64(len(trees))
		}
	}

	f.trees = trees
	f.width = width
	f.importances = importances

	return nil
}

// PredictProba returns the mean probability of label 1 for each row.
func (f *RandomForest) PredictProba(X [][]float64) ([]float64, error) {
	if len(f.trees) == 0 {
		return nil, errors.New(errors.ErrCodeModelNotFitted, "random forest has not been fitted")
	}

	out := make([]float64, len(X))

	for i, row := range X {
		if len(row) != f.width {
			return nil, errors.Newf(errors.ErrCodeFeatureMismatch, "row %d has %d features, model was fitted on %d", i, len(row), f.width)
		}

		sum := 0.0
		for _, tree := range f.trees {
			sum += tree.probability(row)
		}

		out[i] = sum / float64(len(f.trees))
	}

	return out, nil
}

// Predict labels a row 1 when more than half the forest's probability mass says so.
func (f *RandomForest) Predict(X [][]float64) ([]int, error) {
	proba, err := f.PredictProba(X)
	if err != nil {
		return nil, err
	}

	labels := make([]int, len(proba))
	for i, p := range proba {
		if p > 0.5 {
			labels[i] = 1
		}
	}

	return labels, nil
}

// Score returns the accuracy of the forest on X.
func (f *RandomForest) Score(X [][]float64, y []int) (float64, error) {
	pred, err := f.Predict(X)
	if err != nil {
		return 0, err
	}

	return Accuracy(y, pred)
}

// Clone returns an unfitted forest with the same configuration.
func (f *RandomForest) Clone() Estimator {
	return &RandomForest{config: f.config}
}

// Params returns the configuration as grid params.
func (f *RandomForest) Params() Params {
	var depth any
	if f.config.MaxDepth.IsSome() {
		depth = f.config.MaxDepth.Unwrap()
	}

	return Params{
		ParamNEstimators:     f.config.NEstimators,
		ParamMaxDepth:        depth,
		ParamMinSamplesSplit: f.config.MinSamplesSplit,
		ParamMinSamplesLeaf:  f.config.MinSamplesLeaf,
		ParamMaxFeatures:     f.config.MaxFeatures,
		ParamRandomState:     int(f.config.Seed),
	}
}

// FeatureImportances returns the normalised mean impurity decrease per
// feature, or nil before Fit.
func (f *RandomForest) FeatureImportances() []float64 {
	if f.importances == nil {
		return nil
	}

	out := make([]float64, len(f.importances))
	copy(out, f.importances)

	return out
}

// MaxTreeDepth returns the depth of the deepest fitted tree.
func (f *RandomForest) MaxTreeDepth() int {
	deepest := 0
	for _, tree := range f.trees {
		deepest = max(deepest, tree.depth())
	}

	return deepest
}

// FormatParams renders params in sorted key order.
func FormatParams(params Params) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		v := params[k]
		if v == nil {
			v = "none"
		}

		parts[i] = fmt.Sprintf("%s=%v", k, v)
	}

	return strings.Join(parts, ", ")
}
