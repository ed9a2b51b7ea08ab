package model

import (
	"testing"

	"github.com/rxtech-lab/argo-forecast/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestAccuracy(t *testing.T) {
	tests := []struct {
		name     string
		truth    []int
		pred     []int
		expected float64
	}{
		{name: "all correct", truth: []int{0, 1, 1}, pred: []int{0, 1, 1}, expected: 1},
		{name: "all wrong", truth: []int{0, 1}, pred: []int{1, 0}, expected: 0},
		{name: "half", truth: []int{0, 1, 1, 0}, pred: []int{0, 1, 0, 1}, expected: 0.5},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			acc, err := Accuracy(tc.truth, tc.pred)
			assert.NoError(t, err)
			assert.InDelta(t, tc.expected, acc, 1e-12)
		})
	}

	_, err := Accuracy([]int{1}, []int{1, 0})
	assert.True(t, errors.HasCode(err, errors.ErrCodeFeatureMismatch))

	_, err = Accuracy(nil, nil)
	assert.True(t, errors.IsInsufficientDataError(err))
}

func TestParamsClone(t *testing.T) {
	p := Params{"a": 1}
	c := p.Clone()
	c["a"] = 2

	assert.Equal(t, 1, p["a"])
}
