// Package sortedhash implements an immutable lookup table that stores its
// entries sorted by a 64-bit hash of the key. Lookups binary-search the hash
// and disambiguate colliding keys with a linear scan over the equal-hash run.
package sortedhash

import (
	"errors"
	"slices"

	"github.com/cespare/xxhash/v2"
)

// ErrDuplicateKey is returned by New when the same key occurs more than once.
var ErrDuplicateKey = errors.New("duplicate key")

// String hashes a string key with xxHash64.
func String(s string) uint64 { return xxhash.Sum64String(s) }

// Uint64 hashes an integer key with xxHash64 over its little-endian bytes.
func Uint64(v uint64) uint64 {
	var b [8]byte
	for i := range b {
		b[i] = byte(v >> (8 * i))
	}
	return xxhash.Sum64(b[:])
}

type entry[K comparable, V any] struct {
	hash  uint64
	key   K
	value V
}

// Map is an immutable hash-sorted table. The zero value is an empty map.
type Map[K comparable, V any] struct {
	hash    func(K) uint64
	entries []entry[K, V]
}

// New creates a map of keys[i] to values[i].
// Returns ErrDuplicateKey (wrapped with the offending index) if a key repeats.
func New[K comparable, V any](
	hash func(K) uint64, keys []K, values []V,
) (*Map[K, V], error) {
	if len(keys) != len(values) {
		panic("sortedhash: len(keys) != len(values)")
	}
	m := &Map[K, V]{hash: hash, entries: make([]entry[K, V], len(keys))}
	for i, k := range keys {
		m.entries[i] = entry[K, V]{hash: hash(k), key: k, value: values[i]}
	}
	// Stable to keep declaration order within equal-hash runs.
	slices.SortStableFunc(m.entries, func(a, b entry[K, V]) int {
		switch {
		case a.hash < b.hash:
			return -1
		case a.hash > b.hash:
			return 1
		}
		return 0
	})
	for i := 1; i < len(m.entries); i++ {
		for j := i - 1; j >= 0 && m.entries[j].hash == m.entries[i].hash; j-- {
			if m.entries[j].key == m.entries[i].key {
				return nil, &DuplicateError[K]{Key: m.entries[i].key}
			}
		}
	}
	return m, nil
}

// DuplicateError names the repeated key.
type DuplicateError[K comparable] struct{ Key K }

func (e *DuplicateError[K]) Error() string { return ErrDuplicateKey.Error() }

func (e *DuplicateError[K]) Unwrap() error { return ErrDuplicateKey }

// Len returns the number of entries.
func (m *Map[K, V]) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Get returns the value associated with k.
func (m *Map[K, V]) Get(k K) (v V, ok bool) {
	if m == nil || len(m.entries) == 0 {
		return v, false
	}
	h := m.hash(k)
	i, found := slices.BinarySearchFunc(m.entries, h, func(e entry[K, V], h uint64) int {
		switch {
		case e.hash < h:
			return -1
		case e.hash > h:
			return 1
		}
		return 0
	})
	if !found {
		return v, false
	}
	for ; i < len(m.entries) && m.entries[i].hash == h; i++ {
		if m.entries[i].key == k {
			return m.entries[i].value, true
		}
	}
	return v, false
}
