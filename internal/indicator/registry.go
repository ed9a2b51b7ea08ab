package indicator

import (
	"sync"

	"github.com/rxtech-lab/argo-forecast/internal/types"
	"github.com/rxtech-lab/argo-forecast/pkg/errors"
)

// IndicatorRegistry manages all available indicators.
type IndicatorRegistry interface {
	RegisterIndicator(indicator Indicator) error
	GetIndicator(name types.IndicatorType) (Indicator, error)
	// ListIndicators returns indicator names in registration order.
	ListIndicators() []types.IndicatorType
	RemoveIndicator(name types.IndicatorType) error
	// Resolve returns the indicators needed to compute features, in registration order.
	Resolve(features types.FeatureSet) ([]Indicator, error)
}

// IndicatorRegistryV1 manages all available indicators.
type IndicatorRegistryV1 struct {
	indicators map[types.IndicatorType]Indicator
	order      []types.IndicatorType
	mu         sync.RWMutex
}

// NewIndicatorRegistry creates a new indicator registry.
func NewIndicatorRegistry() IndicatorRegistry {
	return &IndicatorRegistryV1{
		indicators: make(map[types.IndicatorType]Indicator),
		order:      nil,
		mu:         sync.RWMutex{},
	}
}

// NewDefaultRegistry returns a registry holding every built-in indicator with default parameters.
func NewDefaultRegistry() IndicatorRegistry {
	registry := NewIndicatorRegistry()
	for _, ind := range []Indicator{
		NewRSI(),
		NewMACD(),
		NewBollingerBands(),
		NewATR(),
		NewOBV(),
		NewADX(),
		NewStochastic(),
		NewEMA(),
		NewMA(),
	} {
		// names are distinct, registration cannot fail
		_ = registry.RegisterIndicator(ind)
	}

	return registry
}

// RegisterIndicator adds an indicator to the registry.
func (r *IndicatorRegistryV1) RegisterIndicator(indicator Indicator) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := indicator.Name()
	if _, exists := r.indicators[name]; exists {
		return errors.Newf(errors.ErrCodeIndicatorAlreadyExists, "RegisterIndicator: indicator with name %s already registered", name)
	}

	r.indicators[name] = indicator
	r.order = append(r.order, name)

	return nil
}

// GetIndicator retrieves an indicator by name.
func (r *IndicatorRegistryV1) GetIndicator(name types.IndicatorType) (Indicator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	indicator, exists := r.indicators[name]
	if !exists {
		return nil, errors.Newf(errors.ErrCodeIndicatorNotFound, "GetIndicator: indicator with name %s not found", name)
	}

	return indicator, nil
}

// ListIndicators returns a list of all registered indicator names.
func (r *IndicatorRegistryV1) ListIndicators() []types.IndicatorType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]types.IndicatorType, len(r.order))
	copy(names, r.order)

	return names
}

// RemoveIndicator removes an indicator from the registry.
func (r *IndicatorRegistryV1) RemoveIndicator(name types.IndicatorType) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.indicators[name]; !exists {
		return errors.Newf(errors.ErrCodeIndicatorNotFound, "RemoveIndicator: indicator with name %s not found", name)
	}

	delete(r.indicators, name)

	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)

			break
		}
	}

	return nil
}

// Resolve implements IndicatorRegistry.
func (r *IndicatorRegistryV1) Resolve(features types.FeatureSet) ([]Indicator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	producer := make(map[types.FeatureName]types.IndicatorType)
	for _, name := range r.order {
		for _, feature := range r.indicators[name].Features() {
			producer[feature] = name
		}
	}

	needed := make(map[types.IndicatorType]bool)
	for _, feature := range features {
		name, ok := producer[feature]
		if !ok {
			return nil, errors.Newf(errors.ErrCodeUnknownFeature, "no registered indicator emits feature %s", feature)
		}

		needed[name] = true
	}

	resolved := make([]Indicator, 0, len(needed))
	for _, name := range r.order {
		if needed[name] {
			resolved = append(resolved, r.indicators[name])
		}
	}

	return resolved, nil
}
