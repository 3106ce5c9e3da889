package index

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

// RecordSize is the on-disk width of one record in bytes.
const RecordSize = 4

// Decode interprets b as a flat array of little-endian uint32 records.
// There is no header; len(b) must be a multiple of RecordSize.
func Decode(b []byte) ([]uint32, error) {
	if len(b)%RecordSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of %d", ErrCorruptFile, len(b), RecordSize)
	}
	out := make([]uint32, len(b)/RecordSize)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(b[i*RecordSize:])
	}
	return out, nil
}

// Encode is the inverse of Decode.
func Encode(vals []uint32) []byte {
	b := make([]byte, len(vals)*RecordSize)
	for i, v := range vals {
		binary.LittleEndian.PutUint32(b[i*RecordSize:], v)
	}
	return b
}

// ReadFile reads a whole index file into memory.
func ReadFile(path string) ([]uint32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading index file: %w", err)
	}
	vals, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return vals, nil
}

// WriteFile writes vals to path in the index file format.
// The data goes to a temporary file that is renamed over path, so readers
// that mapped the previous file keep seeing it intact.
func WriteFile(path string, vals []uint32) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("writing index file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(Encode(vals)); err != nil {
		tmp.Close()
		return fmt.Errorf("writing index file: %w", err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return fmt.Errorf("writing index file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing index file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("writing index file: %w", err)
	}
	return nil
}

// Open reads the keys, values and optional values2 files and builds a Store.
// An empty values2Path means the store has no secondary array.
// The files are read concurrently.
func Open(keysPath, valuesPath, values2Path string) (*Store, error) {
	var keys, values, values2 []uint32
	var g errgroup.Group

	g.Go(func() (err error) {
		keys, err = ReadFile(keysPath)
		return err
	})
	g.Go(func() (err error) {
		values, err = ReadFile(valuesPath)
		return err
	})
	if values2Path != "" {
		g.Go(func() (err error) {
			values2, err = ReadFile(values2Path)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	store, err := New(keys, values, values2)
	if err != nil {
		return nil, fmt.Errorf("opening index %s: %w", keysPath, err)
	}
	return store, nil
}

// WriteStore writes the arrays of s to the given paths.
// values2Path is ignored when s has no secondary array.
func WriteStore(s *Store, keysPath, valuesPath, values2Path string) error {
	if err := WriteFile(keysPath, s.keys); err != nil {
		return err
	}
	if err := WriteFile(valuesPath, s.values); err != nil {
		return err
	}
	if s.values2 != nil && values2Path != "" {
		return WriteFile(values2Path, s.values2)
	}
	return nil
}
