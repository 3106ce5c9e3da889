package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bastiangx/wordindex/pkg/dictionary"
	"github.com/bastiangx/wordindex/pkg/index"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T, defaultSet string, limit int) (*InputHandler, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	layout := dictionary.DefaultLayout()

	plain, err := index.New([]uint32{10, 10, 10, 20, 30}, []uint32{1, 2, 3, 4, 5}, nil)
	require.NoError(t, err)
	require.NoError(t, index.WriteStore(plain,
		filepath.Join(dir, "meanings"+layout.KeysExt),
		filepath.Join(dir, "meanings"+layout.ValuesExt), ""))

	withParents, err := index.New([]uint32{7}, []uint32{70}, []uint32{700})
	require.NoError(t, err)
	require.NoError(t, index.WriteStore(withParents,
		filepath.Join(dir, "parents"+layout.KeysExt),
		filepath.Join(dir, "parents"+layout.ValuesExt),
		filepath.Join(dir, "parents"+layout.Values2Ext)))

	loader := dictionary.NewLoader(dir, dictionary.Options{})
	t.Cleanup(func() { loader.Close() })

	h := NewInputHandler(loader, defaultSet, limit)
	var buf bytes.Buffer
	h.SetOutput(&buf)
	return h, &buf
}

func TestRunLookups(t *testing.T) {
	h, buf := newTestHandler(t, "meanings", 2)
	require.NoError(t, h.Run(strings.NewReader("10\nparents 0x7\n\n")))

	out := buf.String()
	assert.Contains(t, out, "meanings[10] -> 3 values: [1, 2, ... +1 more]")
	assert.Contains(t, out, "parents[7] -> 1 values: [70]")
	assert.Contains(t, out, "parents[7] -> values2: [700]")
	assert.Equal(t, 2, h.requestCount)
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name  string
		set   string
		input string
		want  string
	}{
		{"missing key", "meanings", "99", "not found"},
		{"bad key", "meanings", "ten", "invalid key"},
		{"no set", "", "10", "No set selected"},
		{"too many fields", "meanings", "a b c", "Expected [set] key"},
		{"unknown set", "meanings", "nope 1", "Lookup failed"},
		{"unknown command", "meanings", ":fly", "Unknown command"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, buf := newTestHandler(t, tt.set, 10)
			require.NoError(t, h.Run(strings.NewReader(tt.input)))
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestCommands(t *testing.T) {
	h, buf := newTestHandler(t, "", 10)
	require.NoError(t, h.Run(strings.NewReader(":sets\n:use parents\n7\n:stats\n")))

	out := buf.String()
	assert.Contains(t, out, "1. meanings (5 records)")
	assert.Contains(t, out, "2. parents (1 records) +values2")
	assert.Contains(t, out, "Using parents")
	assert.Equal(t, "parents", h.currentSet)
	assert.Contains(t, out, "parents[7] -> values2: [700]")
	assert.Contains(t, out, "1 open")
}
