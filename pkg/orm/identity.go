package orm

import (
	"strings"
	"sync"
)

// Handle is a caller-owned object built from a fetched row by a Hydrator.
type Handle = any

// IdentityMap keeps at most one live handle per (model, primary key).
// All methods are safe for concurrent use.
type IdentityMap struct {
	m sync.Map // identityKey -> Handle
}

const keySep = "\x00"

func identityKey(model, pk string) string {
	return model + keySep + pk
}

// Get returns the handle mapped to (model, pk).
func (im *IdentityMap) Get(model, pk string) (Handle, bool) {
	return im.m.Load(identityKey(model, pk))
}

// Insert maps (model, pk) to h, replacing any existing handle.
func (im *IdentityMap) Insert(model, pk string, h Handle) {
	im.m.Store(identityKey(model, pk), h)
}

// LoadOrStore returns the existing handle for (model, pk) if present.
// Otherwise it stores and returns h. loaded reports whether h was discarded.
func (im *IdentityMap) LoadOrStore(model, pk string, h Handle) (actual Handle, loaded bool) {
	return im.m.LoadOrStore(identityKey(model, pk), h)
}

// Evict removes (model, pk).
func (im *IdentityMap) Evict(model, pk string) {
	im.m.Delete(identityKey(model, pk))
}

// EvictModel removes every entry of model.
func (im *IdentityMap) EvictModel(model string) {
	prefix := model + keySep
	im.m.Range(func(k, _ any) bool {
		if strings.HasPrefix(k.(string), prefix) {
			im.m.Delete(k)
		}
		return true
	})
}

// Clear removes every entry.
func (im *IdentityMap) Clear() {
	im.m.Clear()
}

// mergeInto copies every entry into dst, keeping handles dst already maps.
func (im *IdentityMap) mergeInto(dst *IdentityMap) {
	im.m.Range(func(k, v any) bool {
		dst.m.LoadOrStore(k, v)
		return true
	})
}

// Len counts the entries. It walks the whole map.
func (im *IdentityMap) Len() int {
	n := 0
	im.m.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
