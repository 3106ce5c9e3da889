//go:build !unix

package index

import (
	"io"
	"os"
)

// Without mmap the file is read into memory; Close has nothing to release.
func mmapFile(f *os.File, size int) ([]byte, error) {
	buf := make([]byte, size)
	if _, err := io.ReadFull(f, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func munmap([]byte) error {
	return nil
}
