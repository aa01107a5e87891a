// Package cache provides the per-form side table that keeps opaque UI state
// for rendered items, addressed by key kind and key value.
package cache

import (
	"sort"
	"sync"

	"github.com/samber/mo"
)

// KeyKind names the addressing scheme of a cache key.
type KeyKind string

// KeyValuePath addresses entries by value path ("/items/0").
const KeyValuePath KeyKind = "valuePath"

// Index is the cache contract consumed by the array engine. Entries are opaque.
type Index interface {
	Get(kind KeyKind, key string) mo.Option[any]
	Set(kind KeyKind, key string, entry any)
	Delete(kind KeyKind, key string)
}

type entryKey struct {
	kind KeyKind
	key  string
}

// Store is the map-backed Index owned by one form instance.
type Store struct {
	mu      sync.RWMutex
	entries map[entryKey]any
}

var _ Index = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{entries: make(map[entryKey]any)}
}

func (s *Store) Get(kind KeyKind, key string) mo.Option[any] {
	if s == nil {
		return mo.None[any]()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[entryKey{kind: kind, key: key}]
	if !ok {
		return mo.None[any]()
	}
	return mo.Some(entry)
}

func (s *Store) Set(kind KeyKind, key string, entry any) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entries == nil {
		s.entries = make(map[entryKey]any)
	}
	s.entries[entryKey{kind: kind, key: key}] = entry
}

func (s *Store) Delete(kind KeyKind, key string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, entryKey{kind: kind, key: key})
}

// Keys lists the keys stored under kind in sorted order.
func (s *Store) Keys(kind KeyKind) []string {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		if k.kind == kind {
			keys = append(keys, k.key)
		}
	}
	sort.Strings(keys)
	return keys
}

// Snapshot copies the entries stored under kind.
func (s *Store) Snapshot(kind KeyKind) map[string]any {
	out := make(map[string]any)
	if s == nil {
		return out
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for k, v := range s.entries {
		if k.kind == kind {
			out[k.key] = v
		}
	}
	return out
}

// Len returns the number of entries across all kinds.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Scoped narrows an Index to a single key kind.
type Scoped struct {
	index Index
	kind  KeyKind
}

// Scope binds index to kind.
func Scope(index Index, kind KeyKind) Scoped {
	return Scoped{index: index, kind: kind}
}

// ByValuePath is the view the array engine works with.
func ByValuePath(index Index) Scoped {
	return Scope(index, KeyValuePath)
}

func (s Scoped) Get(key string) mo.Option[any] {
	if s.index == nil {
		return mo.None[any]()
	}
	return s.index.Get(s.kind, key)
}

func (s Scoped) Set(key string, entry any) {
	if s.index == nil {
		return
	}
	s.index.Set(s.kind, key, entry)
}

func (s Scoped) Delete(key string) {
	if s.index == nil {
		return
	}
	s.index.Delete(s.kind, key)
}
