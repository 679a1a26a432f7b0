// Package listing keeps the portal-specific search strategies behind a
// registry, so additional news portals can plug in without touching the
// pipeline.
package listing

import (
	"fmt"

	"newswatch/internal/ports"
)

// Strategy is a named listing source for one portal.
type Strategy interface {
	Name() string
	ports.ListingSource
}

// Registry keeps a mapping from portal names to their implementations.
type Registry struct {
	strategies map[string]Strategy
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{strategies: map[string]Strategy{}}
}

// Register adds or replaces a strategy implementation.
func (r *Registry) Register(strategy Strategy) {
	if r.strategies == nil {
		r.strategies = map[string]Strategy{}
	}
	r.strategies[strategy.Name()] = strategy
}

// Resolve returns a strategy by portal name or an error if it is absent.
func (r *Registry) Resolve(name string) (Strategy, error) {
	if strategy, ok := r.strategies[name]; ok {
		return strategy, nil
	}
	return nil, fmt.Errorf("listing strategy %s is not registered", name)
}
