package indicator

import (
	"github.com/rxtech-lab/argo-forecast/pkg/errors"
)

// periodParam reads a positive int period from params at index i.
func periodParam(params []any, i int, name string) (int, error) {
	period, ok := params[i].(int)
	if !ok {
		return 0, errors.Newf(errors.ErrCodeInvalidType, "invalid type for %s parameter, expected int", name)
	}

	if period <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidPeriod, "%s must be a positive integer, got %d", name, period)
	}

	return period, nil
}

// floatParam reads a positive float64 from params at index i.
func floatParam(params []any, i int, name string) (float64, error) {
	value, ok := params[i].(float64)
	if !ok {
		return 0, errors.Newf(errors.ErrCodeInvalidType, "invalid type for %s parameter, expected float64", name)
	}

	if value <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidParameter, "%s must be positive, got %f", name, value)
	}

	return value, nil
}
