package dictionary

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bastiangx/wordindex/pkg/index"
	"github.com/charmbracelet/log"
)

// FileRole is the part a file plays in an index set.
type FileRole int

const (
	RoleUnknown FileRole = iota
	RoleKeys             // sorted keys
	RoleValues           // values parallel to keys
	RoleValues2          // optional secondary values
)

func (r FileRole) String() string {
	switch r {
	case RoleKeys:
		return "keys"
	case RoleValues:
		return "values"
	case RoleValues2:
		return "values2"
	default:
		return "unknown"
	}
}

// Layout names the file extensions that make up an index set.
// A set called "meanings.text" is stored as meanings.text.valIds,
// meanings.text.mainIds and, optionally, meanings.text.parentIds.
type Layout struct {
	KeysExt    string
	ValuesExt  string
	Values2Ext string
}

// DefaultLayout returns the extensions used when none are configured.
func DefaultLayout() Layout {
	return Layout{
		KeysExt:    ".valIds",
		ValuesExt:  ".mainIds",
		Values2Ext: ".parentIds",
	}
}

// paths returns the three file paths of the named set under dir.
func (l Layout) paths(dir, name string) (keys, values, values2 string) {
	return filepath.Join(dir, name+l.KeysExt),
		filepath.Join(dir, name+l.ValuesExt),
		filepath.Join(dir, name+l.Values2Ext)
}

// DetectRole reports which role filename plays under layout, and the set name it belongs to.
func DetectRole(filename string, layout Layout) (FileRole, string, error) {
	base := filepath.Base(filename)
	candidates := []struct {
		ext  string
		role FileRole
	}{
		{layout.KeysExt, RoleKeys},
		{layout.ValuesExt, RoleValues},
		{layout.Values2Ext, RoleValues2},
	}
	for _, c := range candidates {
		if c.ext == "" || !strings.HasSuffix(base, c.ext) {
			continue
		}
		name := strings.TrimSuffix(base, c.ext)
		if name == "" {
			break
		}
		return c.role, name, nil
	}
	return RoleUnknown, "", fmt.Errorf("unable to detect index role for file %s", filename)
}

// ValidateIndexFile checks that filename is a regular file holding whole records.
func ValidateIndexFile(filename string) error {
	info, err := os.Stat(filename)
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", filename, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", filename)
	}
	if info.Size()%index.RecordSize != 0 {
		return fmt.Errorf("%w: %s is %d bytes, not a multiple of %d",
			index.ErrCorruptFile, filename, info.Size(), index.RecordSize)
	}
	log.Debugf("Index file %s validated: %d records", filename, info.Size()/index.RecordSize)
	return nil
}

// recordCount returns the number of records in a validated file.
func recordCount(filename string) (int, error) {
	info, err := os.Stat(filename)
	if err != nil {
		return 0, err
	}
	return int(info.Size() / index.RecordSize), nil
}

// WriteSet writes s into dir as the set called name.
// The values2 file is only written when s has secondary values.
func WriteSet(dir, name string, layout Layout, s *index.Store) error {
	if name == "" {
		return fmt.Errorf("%w: empty set name", index.ErrInvalidInput)
	}
	keysPath, valuesPath, values2Path := layout.paths(dir, name)
	if !s.HasValues2() {
		values2Path = ""
	} else if layout.Values2Ext == "" {
		return fmt.Errorf("%w: set %s has secondary values but no values2 extension is configured",
			index.ErrInvalidInput, name)
	}
	if err := index.WriteStore(s, keysPath, valuesPath, values2Path); err != nil {
		return fmt.Errorf("writing index set %s: %w", name, err)
	}
	log.Debugf("Wrote index set %s (%d records) to %s", name, s.Len(), dir)
	return nil
}
