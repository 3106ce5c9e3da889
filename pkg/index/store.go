/*
Package index implements an immutable sorted-key store over fixed-width uint32 arrays.

A Store pairs a sorted keys array with a parallel values array and, optionally,
a second parallel values2 array. Lookups are binary searches over keys; nothing
is parsed or boxed per record, so the arrays can be plain heap slices or views
over memory-mapped files.

	store, err := index.New(keys, values, nil)
	v, err := store.Value(20)      // single match, ErrNotFound when absent
	vs := store.Values(10)         // whole duplicate run, empty when absent

keys must be sorted ascending. This is not checked: the caller guarantees it.
A Store holds no mutable state and is safe for any number of concurrent readers.
*/
package index

import "fmt"

// Store is a read-only sorted index over parallel uint32 arrays.
type Store struct {
	keys    []uint32
	values  []uint32
	values2 []uint32
}

// New builds a Store over keys and values, plus values2 when it is non-nil.
// The slices are not copied; the store keeps referencing them, so callers
// must not modify them afterwards.
func New(keys, values, values2 []uint32) (*Store, error) {
	if len(keys) != len(values) {
		return nil, fmt.Errorf("%w: %d keys but %d values", ErrInvalidInput, len(keys), len(values))
	}
	if values2 != nil && len(values2) != len(keys) {
		return nil, fmt.Errorf("%w: %d keys but %d secondary values", ErrInvalidInput, len(keys), len(values2))
	}
	return &Store{
		keys:    keys,
		values:  values,
		values2: values2,
	}, nil
}

// Len returns the number of records.
func (s *Store) Len() int {
	return len(s.keys)
}

// HasValues2 reports whether the store was built with a secondary array.
func (s *Store) HasValues2() bool {
	return s.values2 != nil
}

// Keys returns the backing keys array. It must be treated as read-only.
func (s *Store) Keys() []uint32 {
	return s.keys
}

// ValuesArray returns the backing values array. It must be treated as read-only.
func (s *Store) ValuesArray() []uint32 {
	return s.values
}

// Values2Array returns the backing secondary array, nil when absent.
func (s *Store) Values2Array() []uint32 {
	return s.values2
}

// Value returns the value stored for key.
// When key occurs more than once, which of its positions is used is unspecified;
// use FirstValue, LastValue or Values for a deterministic answer.
func (s *Store) Value(key uint32) (uint32, error) {
	pos, ok := search(s.keys, key)
	if !ok {
		return 0, fmt.Errorf("%w: key %d", ErrNotFound, key)
	}
	return s.values[pos], nil
}

// Value2 is Value over the secondary array.
func (s *Store) Value2(key uint32) (uint32, error) {
	if s.values2 == nil {
		return 0, fmt.Errorf("%w: store has no secondary values", ErrInvalidState)
	}
	pos, ok := search(s.keys, key)
	if !ok {
		return 0, fmt.Errorf("%w: key %d", ErrNotFound, key)
	}
	return s.values2[pos], nil
}

// FirstValue returns the value at the leftmost position holding key.
func (s *Store) FirstValue(key uint32) (uint32, error) {
	lo, hi := s.Span(key)
	if lo == hi {
		return 0, fmt.Errorf("%w: key %d", ErrNotFound, key)
	}
	return s.values[lo], nil
}

// LastValue returns the value at the rightmost position holding key.
func (s *Store) LastValue(key uint32) (uint32, error) {
	lo, hi := s.Span(key)
	if lo == hi {
		return 0, fmt.Errorf("%w: key %d", ErrNotFound, key)
	}
	return s.values[hi-1], nil
}

// Values returns every value whose key equals key, in stored order.
// A missing key yields an empty slice, not an error.
// The result is a copy and may be modified by the caller.
func (s *Store) Values(key uint32) []uint32 {
	lo, hi := s.Span(key)
	out := make([]uint32, hi-lo)
	copy(out, s.values[lo:hi])
	return out
}

// Values2 is Values over the secondary array.
func (s *Store) Values2(key uint32) ([]uint32, error) {
	if s.values2 == nil {
		return nil, fmt.Errorf("%w: store has no secondary values", ErrInvalidState)
	}
	lo, hi := s.Span(key)
	out := make([]uint32, hi-lo)
	copy(out, s.values2[lo:hi])
	return out, nil
}

// Span returns the half-open range [lo, hi) of positions whose key equals key.
// lo == hi when key is absent; lo is then the insertion point.
func (s *Store) Span(key uint32) (lo, hi int) {
	lo = lowerBound(s.keys, key)
	hi = upperBound(s.keys[lo:], key) + lo
	return lo, hi
}
