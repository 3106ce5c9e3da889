package index

import "errors"

var (
	// ErrInvalidInput is returned when arrays of different lengths are paired.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidState is returned by secondary lookups on a store without values2.
	ErrInvalidState = errors.New("invalid state")
	// ErrNotFound is returned by single-key lookups when the key is absent.
	ErrNotFound = errors.New("key not found")
	// ErrCorruptFile is returned when an index file is not a whole number of records.
	ErrCorruptFile = errors.New("corrupt index file")
)
