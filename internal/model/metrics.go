package model

import (
	"github.com/rxtech-lab/argo-forecast/pkg/errors"
)

// Accuracy returns the fraction of predictions equal to the truth.
func Accuracy(yTrue, yPred []int) (float64, error) {
	if len(yTrue) != len(yPred) {
		return 0, errors.Newf(errors.ErrCodeFeatureMismatch, "accuracy needs equal lengths, got %d labels and %d predictions", len(yTrue), len(yPred))
	}

	if len(yTrue) == 0 {
		return 0, errors.NewInsufficientDataError(1, 0, "", "accuracy of an empty sample is undefined")
	}

	correct := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
	}

	return float64(correct) / float64(len(yTrue)), nil
}

// validateSample checks the shape of a training or scoring sample.
func validateSample(X [][]float64, y []int) (int, error) {
	if len(X) == 0 {
		return 0, errors.NewInsufficientDataError(1, 0, "", "cannot fit on an empty sample")
	}

	if len(X) != len(y) {
		return 0, errors.Newf(errors.ErrCodeFeatureMismatch, "X has %d rows but y has %d", len(X), len(y))
	}

	width := len(X[0])
	if width == 0 {
		return 0, errors.New(errors.ErrCodeFeatureMismatch, "rows have no features")
	}

	for i, row := range X {
		if len(row) != width {
			return 0, errors.Newf(errors.ErrCodeFeatureMismatch, "row %d has %d features, expected %d", i, len(row), width)
		}

		if y[i] != 0 && y[i] != 1 {
			return 0, errors.Newf(errors.ErrCodeInvalidParameter, "label %d at row %d is not binary", y[i], i)
		}
	}

	return width, nil
}
