package index

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"unsafe"

	"golang.org/x/sys/cpu"
)

// Mapped is a Store whose arrays live in read-only file mappings.
// The embedded Store must not be used after Close.
type Mapped struct {
	*Store

	mu      sync.Mutex
	regions [][]byte
	closed  bool
}

// OpenMapped is Open backed by memory-mapped files instead of heap copies.
// On little-endian hosts the mapped bytes are used in place.
func OpenMapped(keysPath, valuesPath, values2Path string) (*Mapped, error) {
	m := &Mapped{}

	keys, err := m.mapFile(keysPath)
	if err != nil {
		m.Close()
		return nil, err
	}
	values, err := m.mapFile(valuesPath)
	if err != nil {
		m.Close()
		return nil, err
	}
	var values2 []uint32
	if values2Path != "" {
		if values2, err = m.mapFile(values2Path); err != nil {
			m.Close()
			return nil, err
		}
	}

	store, err := New(keys, values, values2)
	if err != nil {
		m.Close()
		return nil, fmt.Errorf("opening index %s: %w", keysPath, err)
	}
	m.Store = store
	return m, nil
}

// mapFile maps path and returns its records. Empty files cannot be mapped
// and come back as an empty array.
func (m *Mapped) mapFile(path string) ([]uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening index file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("opening index file: %w", err)
	}
	size := info.Size()
	if size%RecordSize != 0 {
		return nil, fmt.Errorf("%s: %w: %d bytes is not a multiple of %d", path, ErrCorruptFile, size, RecordSize)
	}
	if size == 0 {
		return []uint32{}, nil
	}

	region, err := mmapFile(f, int(size))
	if err != nil {
		return nil, fmt.Errorf("mapping index file %s: %w", path, err)
	}
	m.regions = append(m.regions, region)

	if cpu.IsBigEndian {
		return Decode(region)
	}
	return unsafe.Slice((*uint32)(unsafe.Pointer(&region[0])), len(region)/RecordSize), nil
}

// Close releases the mappings. It is safe to call more than once.
func (m *Mapped) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true

	var errs []error
	for _, region := range m.regions {
		if err := munmap(region); err != nil {
			errs = append(errs, err)
		}
	}
	m.regions = nil
	return errors.Join(errs...)
}
