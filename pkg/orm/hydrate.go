package orm

import (
	"github.com/leapstack-labs/leaporm/pkg/core"
	"github.com/leapstack-labs/leaporm/pkg/decode"
)

// Record is one decoded row.
type Record struct {
	Model string
	// Key is the canonical primary-key text, empty when the model has no key
	// or the key is null.
	Key    string
	Fields []decode.Field
}

// Get returns the value of the named field.
func (r *Record) Get(name string) (core.Value, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return core.Value{}, false
}

// Map returns the fields as plain Go values keyed by column name.
func (r *Record) Map() map[string]any {
	out := make(map[string]any, len(r.Fields))
	for _, f := range r.Fields {
		out[f.Name] = f.Value.Interface()
	}
	return out
}

// Hydrator turns a decoded record into the caller's object.
type Hydrator interface {
	Hydrate(model string, rec *Record) (Handle, error)
}

// HydratorFunc adapts a function to the Hydrator interface.
type HydratorFunc func(model string, rec *Record) (Handle, error)

// Hydrate calls f.
func (f HydratorFunc) Hydrate(model string, rec *Record) (Handle, error) {
	return f(model, rec)
}

// recordHydrator hands out the *Record itself.
type recordHydrator struct{}

func (recordHydrator) Hydrate(_ string, rec *Record) (Handle, error) {
	return rec, nil
}
