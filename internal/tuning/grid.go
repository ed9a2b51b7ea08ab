package tuning

import (
	"sort"

	"github.com/rxtech-lab/argo-forecast/internal/model"
	"github.com/rxtech-lab/argo-forecast/pkg/errors"
)

// ParamGrid maps a hyperparameter name to the values to try.
type ParamGrid map[string][]any

// DefaultParamGrid is the random forest search space used when none is configured.
func DefaultParamGrid() ParamGrid {
	return ParamGrid{
		model.ParamNEstimators:     {100, 200},
		model.ParamMaxDepth:        {nil, 5, 10},
		model.ParamMinSamplesSplit: {2, 5},
		model.ParamMinSamplesLeaf:  {1, 2},
		model.ParamMaxFeatures:     {model.MaxFeaturesSqrt, model.MaxFeaturesLog2},
	}
}

// Size returns the number of combinations in the grid.
func (g ParamGrid) Size() int {
	if len(g) == 0 {
		return 0
	}

	size := 1
	for _, values := range g {
		size *= len(values)
	}

	return size
}

// Expand returns every combination of the grid. Keys are visited in sorted order
// and the last key varies fastest, so the order is stable across runs.
func (g ParamGrid) Expand() ([]model.Params, error) {
	if len(g) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyParamGrid, "parameter grid is empty")
	}

	keys := make([]string, 0, len(g))
	for key, values := range g {
		if len(values) == 0 {
			return nil, errors.Newf(errors.ErrCodeEmptyParamGrid, "parameter %s has no values", key)
		}

		keys = append(keys, key)
	}

	sort.Strings(keys)

	points := []model.Params{{}}

	for _, key := range keys {
		next := make([]model.Params, 0, len(points)*len(g[key]))
		for _, point := range points {
			for _, value := range g[key] {
				p := point.Clone()
				p[key] = value
				next = append(next, p)
			}
		}

		points = next
	}

	return points, nil
}
