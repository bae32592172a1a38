// Package schema parses model schema documents and keeps the registry of
// registered models.
package schema

import (
	"fmt"
	"sort"
	"sync"

	"github.com/leapstack-labs/leaporm/pkg/core"
)

// Registry maps model names to parsed schemas.
// Reads never block each other; registration and Clear are exclusive.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]*core.ModelSchema
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{schemas: make(map[string]*core.ModelSchema)}
}

// Register parses raw and replaces any prior schema registered under name.
func (r *Registry) Register(name string, raw []byte) (*core.ModelSchema, error) {
	s, err := Parse(name, raw)
	if err != nil {
		return nil, err
	}
	r.Put(s)
	return s, nil
}

// Put stores an already parsed schema under its model name.
func (r *Registry) Put(s *core.ModelSchema) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schemas[s.Name] = s
}

// Get returns the schema for a model.
func (r *Registry) Get(name string) (*core.ModelSchema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schemas[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrModelNotFound, name)
	}
	return s, nil
}

// ByTable returns the schema whose table is table.
func (r *Registry) ByTable(table string) (*core.ModelSchema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.schemas {
		if s.Table == table {
			return s, true
		}
	}
	return nil, false
}

// Names returns registered model names (sorted).
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot returns all registered schemas sorted by model name.
// Schemas are immutable once registered, so the slice may be used without locking.
func (r *Registry) Snapshot() []*core.ModelSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*core.ModelSchema, 0, len(r.schemas))
	for _, s := range r.schemas {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of registered models.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.schemas)
}

// Clear removes every registered schema.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schemas = make(map[string]*core.ModelSchema)
}
