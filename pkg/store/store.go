// Package store provides a generic, thread-safe, in-memory collection of
// named objects for the GeoServer twin. Keys are caller-chosen (usually a
// "workspace/store/name" path) and listing follows insertion order, which
// is the order GeoServer itself reports catalog entries in.
package store

import (
	"strings"
	"sync"
)

// Store is a generic, thread-safe, in-memory store for objects of type T.
type Store[T any] struct {
	mu    sync.RWMutex
	items map[string]T
	order []string // insertion order for deterministic listing
}

// New creates an empty Store.
func New[T any]() *Store[T] {
	return &Store[T]{
		items: make(map[string]T),
		order: make([]string, 0),
	}
}

// Key joins path segments into a store key.
func Key(parts ...string) string {
	return strings.Join(parts, "/")
}

// Set stores an item under key. If the key already exists, it is overwritten
// but its position in the insertion order is preserved.
func (s *Store[T]) Set(key string, item T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[key]; !exists {
		s.order = append(s.order, key)
	}
	s.items[key] = item
}

// Get retrieves an item by key.
func (s *Store[T]) Get(key string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[key]
	return item, ok
}

// Has reports whether key is present.
func (s *Store[T]) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.items[key]
	return ok
}

// Update applies fn to the item under key and stores the result. It
// returns false when the key is absent.
func (s *Store[T]) Update(key string, fn func(T) T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[key]
	if !ok {
		return false
	}
	s.items[key] = fn(item)
	return true
}

// Delete removes an item by key. Returns true if the item existed.
func (s *Store[T]) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteLocked(key)
}

func (s *Store[T]) deleteLocked(key string) bool {
	if _, exists := s.items[key]; !exists {
		return false
	}
	delete(s.items, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// DeleteFunc removes every item matching the predicate and returns how
// many were removed.
func (s *Store[T]) DeleteFunc(predicate func(key string, item T) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	var doomed []string
	for _, k := range s.order {
		if predicate(k, s.items[k]) {
			doomed = append(doomed, k)
		}
	}
	for _, k := range doomed {
		s.deleteLocked(k)
	}
	return len(doomed)
}

// List returns all items in insertion order.
func (s *Store[T]) List() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]T, 0, len(s.order))
	for _, k := range s.order {
		result = append(result, s.items[k])
	}
	return result
}

// Keys returns all keys in insertion order.
func (s *Store[T]) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Count returns the number of items in the store.
func (s *Store[T]) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Filter returns items that match the given predicate, in insertion order.
func (s *Store[T]) Filter(predicate func(key string, item T) bool) []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []T
	for _, k := range s.order {
		if predicate(k, s.items[k]) {
			result = append(result, s.items[k])
		}
	}
	return result
}

// Any reports whether some item matches the predicate.
func (s *Store[T]) Any(predicate func(key string, item T) bool) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, k := range s.order {
		if predicate(k, s.items[k]) {
			return true
		}
	}
	return false
}

// Reset clears all items.
func (s *Store[T]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]T)
	s.order = make([]string, 0)
}

// Entry is one keyed item of a snapshot.
type Entry[T any] struct {
	Key  string `json:"key"`
	Item T      `json:"item"`
}

// Snapshot returns all items in insertion order.
func (s *Store[T]) Snapshot() []Entry[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry[T], 0, len(s.order))
	for _, k := range s.order {
		out = append(out, Entry[T]{Key: k, Item: s.items[k]})
	}
	return out
}

// LoadSnapshot replaces all items, keeping the snapshot's order. A key
// repeated later in the snapshot overwrites the earlier item in place.
func (s *Store[T]) LoadSnapshot(snapshot []Entry[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]T, len(snapshot))
	s.order = make([]string, 0, len(snapshot))
	for _, e := range snapshot {
		if _, exists := s.items[e.Key]; !exists {
			s.order = append(s.order, e.Key)
		}
		s.items[e.Key] = e.Item
	}
}
