// Package registry provides a global registry for simulation factories.
// Simulations register themselves in init() functions, allowing the CLI and
// the search engine to create one instance per worker without hardcoded
// dependencies.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/vovakirdan/scattershot/internal/sim"
)

// SimInfo contains metadata about a registered simulation.
type SimInfo struct {
	ID    string
	Title string
}

// Factory creates a fresh simulation instance in its initial state.
type Factory func() sim.Simulation

type entry struct {
	factory Factory
	title   string
}

var (
	entries = make(map[string]entry)
	mu      sync.RWMutex
)

// Register adds a simulation factory to the registry.
// Panics if a simulation with the same ID is already registered.
func Register(id, title string, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := entries[id]; exists {
		panic(fmt.Sprintf("registry: simulation %q already registered", id))
	}
	entries[id] = entry{factory: f, title: title}
}

// List returns information about all registered simulations, sorted by ID.
func List() []SimInfo {
	mu.RLock()
	defer mu.RUnlock()

	result := make([]SimInfo, 0, len(entries))
	for id, e := range entries {
		result = append(result, SimInfo{ID: id, Title: e.title})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result
}

// Create instantiates a new simulation by its ID.
func Create(id string) (sim.Simulation, error) {
	f, err := Lookup(id)
	if err != nil {
		return nil, err
	}
	return f(), nil
}

// Lookup returns the factory registered under id.
func Lookup(id string) (Factory, error) {
	mu.RLock()
	defer mu.RUnlock()

	e, ok := entries[id]
	if !ok {
		return nil, fmt.Errorf("registry: unknown simulation %q", id)
	}
	return e.factory, nil
}

// Exists checks if a simulation with the given ID is registered.
func Exists(id string) bool {
	mu.RLock()
	defer mu.RUnlock()

	_, ok := entries[id]
	return ok
}
