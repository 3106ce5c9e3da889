package dictionary

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bastiangx/wordindex/pkg/index"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectRole(t *testing.T) {
	layout := DefaultLayout()
	tests := []struct {
		file string
		role FileRole
		name string
		ok   bool
	}{
		{"meanings.text.valIds", RoleKeys, "meanings.text", true},
		{"/data/meanings.text.mainIds", RoleValues, "meanings.text", true},
		{"valueIdToParent.parentIds", RoleValues2, "valueIdToParent", true},
		{"notes.txt", RoleUnknown, "", false},
		{".valIds", RoleUnknown, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			role, name, err := DetectRole(tt.file, layout)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.role, role)
			assert.Equal(t, tt.name, name)
		})
	}
}

func TestDetectRoleNoValues2(t *testing.T) {
	layout := Layout{KeysExt: ".k", ValuesExt: ".v"}
	_, _, err := DetectRole("set.parentIds", layout)
	assert.Error(t, err)
}

func TestFileRoleString(t *testing.T) {
	assert.Equal(t, "keys", RoleKeys.String())
	assert.Equal(t, "values", RoleValues.String())
	assert.Equal(t, "values2", RoleValues2.String())
	assert.Equal(t, "unknown", RoleUnknown.String())
}

func TestValidateIndexFile(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.valIds")
	bad := filepath.Join(dir, "bad.valIds")
	require.NoError(t, os.WriteFile(good, make([]byte, 12), 0644))
	require.NoError(t, os.WriteFile(bad, make([]byte, 13), 0644))

	assert.NoError(t, ValidateIndexFile(good))

	err := ValidateIndexFile(bad)
	require.Error(t, err)
	assert.True(t, errors.Is(err, index.ErrCorruptFile))

	assert.Error(t, ValidateIndexFile(dir))
	assert.Error(t, ValidateIndexFile(filepath.Join(dir, "missing.valIds")))
}

func TestWriteSet(t *testing.T) {
	dir := t.TempDir()
	layout := DefaultLayout()

	s, err := index.New([]uint32{1, 2}, []uint32{10, 20}, []uint32{100, 200})
	require.NoError(t, err)
	require.NoError(t, WriteSet(dir, "parents", layout, s))

	loaded, err := index.Open(
		filepath.Join(dir, "parents.valIds"),
		filepath.Join(dir, "parents.mainIds"),
		filepath.Join(dir, "parents.parentIds"))
	require.NoError(t, err)
	assert.Equal(t, s.Keys(), loaded.Keys())
	assert.Equal(t, s.Values2Array(), loaded.Values2Array())

	plain, err := index.New([]uint32{1}, []uint32{10}, nil)
	require.NoError(t, err)
	require.NoError(t, WriteSet(dir, "plain", layout, plain))
	assert.NoFileExists(t, filepath.Join(dir, "plain.parentIds"))
}

func TestWriteSetErrors(t *testing.T) {
	s, err := index.New([]uint32{1}, []uint32{10}, []uint32{100})
	require.NoError(t, err)

	err = WriteSet(t.TempDir(), "", DefaultLayout(), s)
	assert.True(t, errors.Is(err, index.ErrInvalidInput))

	err = WriteSet(t.TempDir(), "set", Layout{KeysExt: ".k", ValuesExt: ".v"}, s)
	assert.True(t, errors.Is(err, index.ErrInvalidInput))

	err = WriteSet(filepath.Join(t.TempDir(), "missing"), "set", DefaultLayout(), s)
	assert.Error(t, err)
}
