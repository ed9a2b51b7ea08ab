package model

import (
	"testing"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-forecast/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type ForestTestSuite struct {
	suite.Suite
}

func TestForestSuite(t *testing.T) {
	suite.Run(t, new(ForestTestSuite))
}

// separable returns rows whose first feature alone decides the label,
// with a gap around 0.5. The second feature is uninformative.
func separable(n int) ([][]float64, []int) {
	X := make([][]float64, 0, 2*n)
	y := make([]int, 0, 2*n)

	for i := 0; i < n; i++ {
		noise := float64((i*7)%11) / 11
		X = append(X, []float64{0.4 * float64(i) / float64(n), noise})
		y = append(y, 0)
		X = append(X, []float64{0.6 + 0.4*float64(i)/float64(n), noise})
		y = append(y, 1)
	}

	return X, y
}

func (suite *ForestTestSuite) newForest(config RandomForestConfig) *RandomForest {
	forest, err := NewRandomForest(config)
	suite.Require().NoError(err)

	return forest
}

func (suite *ForestTestSuite) TestFitAndPredictSeparable() {
	config := DefaultRandomForestConfig()
	config.NEstimators = 25
	config.MaxFeatures = MaxFeaturesAll
	forest := suite.newForest(config)

	X, y := separable(40)
	suite.Require().NoError(forest.Fit(X, y))

	score, err := forest.Score(X, y)
	suite.Require().NoError(err)
	suite.GreaterOrEqual(score, 0.95)

	pred, err := forest.Predict([][]float64{{0.05, 0.5}, {0.95, 0.5}})
	suite.Require().NoError(err)
	suite.Equal([]int{0, 1}, pred)
}

func (suite *ForestTestSuite) TestSameSeedSamePredictions() {
	X, y := separable(30)
	probe := [][]float64{{0.45, 0.1}, {0.5, 0.9}, {0.55, 0.3}, {0.2, 0.7}}

	config := DefaultRandomForestConfig()
	config.NEstimators = 15

	a := suite.newForest(config)
	b := suite.newForest(config)
	suite.Require().NoError(a.Fit(X, y))
	suite.Require().NoError(b.Fit(X, y))

	pa, err := a.PredictProba(probe)
	suite.Require().NoError(err)
	pb, err := b.PredictProba(probe)
	suite.Require().NoError(err)
	suite.Equal(pa, pb)
	suite.Equal(a.FeatureImportances(), b.FeatureImportances())
}

func (suite *ForestTestSuite) TestPredictBeforeFit() {
	forest := suite.newForest(DefaultRandomForestConfig())

	_, err := forest.Predict([][]float64{{1, 2}})
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeModelNotFitted))
	suite.Nil(forest.FeatureImportances())
}

func (suite *ForestTestSuite) TestFeatureMismatch() {
	forest := suite.newForest(DefaultRandomForestConfig())
	X, y := separable(10)
	suite.Require().NoError(forest.Fit(X, y))

	_, err := forest.Predict([][]float64{{1, 2, 3}})
	suite.True(errors.HasCode(err, errors.ErrCodeFeatureMismatch))

	err = forest.Fit([][]float64{{1, 2}, {3}}, []int{0, 1})
	suite.True(errors.HasCode(err, errors.ErrCodeFeatureMismatch))

	err = forest.Fit([][]float64{{1}}, []int{0, 1})
	suite.True(errors.HasCode(err, errors.ErrCodeFeatureMismatch))

	err = forest.Fit([][]float64{{1}, {2}}, []int{0, 2})
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))

	err = forest.Fit(nil, nil)
	suite.True(errors.IsInsufficientDataError(err))
}

func (suite *ForestTestSuite) TestSingleClassFitsToConstant() {
	forest := suite.newForest(DefaultRandomForestConfig())
	suite.Require().NoError(forest.Fit([][]float64{{1}, {2}, {3}}, []int{1, 1, 1}))

	pred, err := forest.Predict([][]float64{{-10}, {10}})
	suite.Require().NoError(err)
	suite.Equal([]int{1, 1}, pred)
	suite.Equal(0, forest.MaxTreeDepth())
}

func (suite *ForestTestSuite) TestMaxDepthBoundsTrees() {
	config := DefaultRandomForestConfig()
	config.NEstimators = 10
	config.MaxDepth = optional.Some(1)
	forest := suite.newForest(config)

	X, y := separable(20)
	// flip a few labels so the trees want to grow deeper
	y[3], y[8], y[15] = 1-y[3], 1-y[8], 1-y[15]
	suite.Require().NoError(forest.Fit(X, y))
	suite.LessOrEqual(forest.MaxTreeDepth(), 1)
}

func (suite *ForestTestSuite) TestFeatureImportances() {
	config := DefaultRandomForestConfig()
	config.NEstimators = 20
	config.MaxFeatures = MaxFeaturesAll
	forest := suite.newForest(config)

	X, y := separable(30)
	suite.Require().NoError(forest.Fit(X, y))

	importances := forest.FeatureImportances()
	suite.Len(importances, 2)
	suite.InDelta(1.0, importances[0]+importances[1], 1e-9)
	suite.Greater(importances[0], importances[1])
}

func (suite *ForestTestSuite) TestCloneIsUnfitted() {
	config := DefaultRandomForestConfig()
	config.NEstimators = 5
	forest := suite.newForest(config)

	X, y := separable(10)
	suite.Require().NoError(forest.Fit(X, y))

	clone := forest.Clone()
	suite.Equal(forest.Params(), clone.Params())

	_, err := clone.Predict(X)
	suite.True(errors.HasCode(err, errors.ErrCodeModelNotFitted))

	_, err = forest.Predict(X)
	suite.NoError(err)
}

func (suite *ForestTestSuite) TestFromParams() {
	estimator, err := NewRandomForestFromParams(Params{
		ParamNEstimators:     200,
		ParamMaxDepth:        nil,
		ParamMinSamplesSplit: 5,
		ParamMinSamplesLeaf:  2,
		ParamMaxFeatures:     "log2",
		ParamRandomState:     7,
	})
	suite.Require().NoError(err)

	params := estimator.Params()
	suite.Equal(200, params[ParamNEstimators])
	suite.Nil(params[ParamMaxDepth])
	suite.Equal(5, params[ParamMinSamplesSplit])
	suite.Equal(2, params[ParamMinSamplesLeaf])
	suite.Equal("log2", params[ParamMaxFeatures])
	suite.Equal(7, params[ParamRandomState])

	estimator, err = NewRandomForestFromParams(Params{ParamMaxDepth: float64(10)})
	suite.Require().NoError(err)
	suite.Equal(10, estimator.Params()[ParamMaxDepth])

	estimator, err = NewRandomForestFromParams(Params{ParamMaxDepth: "None"})
	suite.Require().NoError(err)
	suite.Nil(estimator.Params()[ParamMaxDepth])
}

func (suite *ForestTestSuite) TestFromParamsErrors() {
	tests := []struct {
		name   string
		params Params
	}{
		{name: "unknown key", params: Params{"criterion": "gini"}},
		{name: "fractional estimators", params: Params{ParamNEstimators: 1.5}},
		{name: "zero estimators", params: Params{ParamNEstimators: 0}},
		{name: "bad depth", params: Params{ParamMaxDepth: "deep"}},
		{name: "zero depth", params: Params{ParamMaxDepth: 0}},
		{name: "split too small", params: Params{ParamMinSamplesSplit: 1}},
		{name: "leaf too small", params: Params{ParamMinSamplesLeaf: 0}},
		{name: "bad max features", params: Params{ParamMaxFeatures: "half"}},
		{name: "max features not string", params: Params{ParamMaxFeatures: 3}},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			_, err := NewRandomForestFromParams(tc.params)
			suite.Error(err)
			suite.True(errors.HasCode(err, errors.ErrCodeInvalidModelSpec))
		})
	}
}

func (suite *ForestTestSuite) TestFormatParams() {
	suite.Equal("max_depth=none, n_estimators=100", FormatParams(Params{
		ParamNEstimators: 100,
		ParamMaxDepth:    nil,
	}))
}

func (suite *ForestTestSuite) TestFeatureCount() {
	suite.Equal(3, featureCount(MaxFeaturesSqrt, 13))
	suite.Equal(3, featureCount(MaxFeaturesLog2, 13))
	suite.Equal(13, featureCount(MaxFeaturesAll, 13))
	suite.Equal(1, featureCount(MaxFeaturesLog2, 1))
}
