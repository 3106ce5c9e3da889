package index

import (
	"fmt"
	"sort"
)

// Builder collects unsorted records and produces a sorted Store.
type Builder struct {
	withValues2 bool
	keys        []uint32
	values      []uint32
	values2     []uint32
	misuse      int
}

// NewBuilder returns a Builder; withValues2 selects whether records carry a secondary value.
func NewBuilder(withValues2 bool) *Builder {
	return &Builder{withValues2: withValues2}
}

// Add appends a record to a builder without secondary values.
func (b *Builder) Add(key, value uint32) {
	if b.withValues2 {
		b.misuse++
		return
	}
	b.keys = append(b.keys, key)
	b.values = append(b.values, value)
}

// Add2 appends a record to a builder with secondary values.
func (b *Builder) Add2(key, value, value2 uint32) {
	if !b.withValues2 {
		b.misuse++
		return
	}
	b.keys = append(b.keys, key)
	b.values = append(b.values, value)
	b.values2 = append(b.values2, value2)
}

// Len returns the number of records added so far.
func (b *Builder) Len() int {
	return len(b.keys)
}

// Build sorts the records by key and returns the Store.
// Records sharing a key keep the order they were added in.
func (b *Builder) Build() (*Store, error) {
	if b.misuse > 0 {
		return nil, fmt.Errorf("%w: %d records added with the wrong arity", ErrInvalidInput, b.misuse)
	}

	order := make([]int, len(b.keys))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return b.keys[order[i]] < b.keys[order[j]]
	})

	keys := make([]uint32, len(order))
	values := make([]uint32, len(order))
	var values2 []uint32
	if b.withValues2 {
		values2 = make([]uint32, len(order))
	}
	for i, src := range order {
		keys[i] = b.keys[src]
		values[i] = b.values[src]
		if values2 != nil {
			values2[i] = b.values2[src]
		}
	}
	return New(keys, values, values2)
}
