// Package kvstore provides a concurrent-safe in-memory key-value store.
//
// Every operation is linearizable: it runs under a single read-write mutex owned by
// the store instance. List returns entries in insertion order, so enumeration is
// stable across calls as long as the store is not modified.
package kvstore

import (
	"sort"
	"sync"
)

type entry[V any] struct {
	seq   uint64
	value V
}

// Store maps keys of type K to values of type V.
//
// Values are stored and returned by value; callers must not keep pointers or slices
// inside V if they mutate them after a Put.
type Store[K comparable, V any] struct {
	mu      sync.RWMutex
	nextSeq uint64
	items   map[K]entry[V]
}

// New returns an empty store.
func New[K comparable, V any]() *Store[K, V] {
	return &Store[K, V]{items: make(map[K]entry[V])}
}

// Get returns the value stored under key.
func (s *Store[K, V]) Get(key K) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.items[key]

	return e.value, ok
}

// Put stores value under key, replacing any previous value.
// A replaced key keeps its original position in the enumeration order.
func (s *Store[K, V]) Put(key K, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.items[key]
	if !ok {
		e.seq = s.next()
	}

	e.value = value
	s.items[key] = e
}

// Insert stores value under key only if the key is absent.
// It reports whether the value was stored.
func (s *Store[K, V]) Insert(key K, value V) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[key]; ok {
		return false
	}

	s.items[key] = entry[V]{seq: s.next(), value: value}

	return true
}

// Replace stores value under key only if the key is present.
// It reports whether the value was stored.
func (s *Store[K, V]) Replace(key K, value V) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.items[key]
	if !ok {
		return false
	}

	e.value = value
	s.items[key] = e

	return true
}

// Delete removes key and reports whether it was present.
func (s *Store[K, V]) Delete(key K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[key]; !ok {
		return false
	}

	delete(s.items, key)

	return true
}

// List returns a snapshot of all values in insertion order.
func (s *Store[K, V]) List() []V {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]entry[V], 0, len(s.items))
	for _, e := range s.items {
		entries = append(entries, e)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].seq < entries[j].seq
	})

	values := make([]V, len(entries))
	for i, e := range entries {
		values[i] = e.value
	}

	return values
}

// Len returns the number of stored keys.
func (s *Store[K, V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.items)
}

func (s *Store[K, V]) next() uint64 {
	s.nextSeq++
	return s.nextSeq
}
