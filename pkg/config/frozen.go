package config

import (
	"cmp"
	"slices"
)

// Frozen is a read-only map. The zero value is an empty map.
type Frozen[K cmp.Ordered, V any] struct {
	m map[K]V
}

// Freeze copies m into a Frozen map.
func Freeze[K cmp.Ordered, V any](m map[K]V) Frozen[K, V] {
	c := make(map[K]V, len(m))
	for k, v := range m {
		c[k] = v
	}
	return Frozen[K, V]{m: c}
}

// Get returns the value stored under k.
func (f Frozen[K, V]) Get(k K) (V, bool) {
	v, ok := f.m[k]
	return v, ok
}

// Has reports whether k is present.
func (f Frozen[K, V]) Has(k K) bool {
	_, ok := f.m[k]
	return ok
}

// Len returns the number of entries.
func (f Frozen[K, V]) Len() int {
	return len(f.m)
}

// Keys returns the keys in ascending order.
func (f Frozen[K, V]) Keys() []K {
	keys := make([]K, 0, len(f.m))
	for k := range f.m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Map returns a mutable copy.
func (f Frozen[K, V]) Map() map[K]V {
	c := make(map[K]V, len(f.m))
	for k, v := range f.m {
		c[k] = v
	}
	return c
}
