package model

import (
	"math"
	"strings"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-forecast/pkg/errors"
)

func intParam(key string, value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case uint64:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, errors.Newf(errors.ErrCodeInvalidModelSpec, "%s must be an integer, got %v", key, v)
		}

		return int(v), nil
	default:
		return 0, errors.Newf(errors.ErrCodeInvalidModelSpec, "%s must be an integer, got %T", key, value)
	}
}

// depthParam accepts an integer or nil/"none" for an unlimited depth.
func depthParam(value any) (optional.Option[int], error) {
	if value == nil {
		return optional.None[int](), nil
	}

	if s, ok := value.(string); ok {
		if strings.EqualFold(s, "none") {
			return optional.None[int](), nil
		}

		return nil, errors.Newf(errors.ErrCodeInvalidModelSpec, "max_depth must be an integer or none, got %q", s)
	}

	depth, err := intParam(ParamMaxDepth, value)
	if err != nil {
		return nil, err
	}

	return optional.Some(depth), nil
}
