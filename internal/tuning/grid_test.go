package tuning

import (
	"testing"

	"github.com/rxtech-lab/argo-forecast/internal/model"
	"github.com/rxtech-lab/argo-forecast/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestExpandOrder(t *testing.T) {
	grid := ParamGrid{
		"b": {1, 2},
		"a": {"x", "y"},
	}

	points, err := grid.Expand()
	assert.NoError(t, err)
	assert.Equal(t, []model.Params{
		{"a": "x", "b": 1},
		{"a": "x", "b": 2},
		{"a": "y", "b": 1},
		{"a": "y", "b": 2},
	}, points)
	assert.Equal(t, 4, grid.Size())
}

func TestExpandEmpty(t *testing.T) {
	_, err := ParamGrid{}.Expand()
	assert.True(t, errors.HasCode(err, errors.ErrCodeEmptyParamGrid))

	_, err = ParamGrid{"a": {1}, "b": {}}.Expand()
	assert.True(t, errors.HasCode(err, errors.ErrCodeEmptyParamGrid))
	assert.True(t, errors.IsConfigurationError(err))

	assert.Equal(t, 0, ParamGrid{}.Size())
}

func TestDefaultParamGrid(t *testing.T) {
	grid := DefaultParamGrid()
	assert.Equal(t, 48, grid.Size())

	points, err := grid.Expand()
	assert.NoError(t, err)
	assert.Len(t, points, 48)

	for _, params := range points {
		_, err := model.NewRandomForestFromParams(params)
		assert.NoError(t, err, "params %s", model.FormatParams(params))
	}
}
