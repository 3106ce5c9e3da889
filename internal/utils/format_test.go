package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatWithCommas(t *testing.T) {
	tests := map[int]string{
		0:          "0",
		7:          "7",
		999:        "999",
		1000:       "1,000",
		123456:     "123,456",
		1234567:    "1,234,567",
		-1234:      "-1,234",
		1000000:    "1,000,000",
	}
	for n, want := range tests {
		assert.Equal(t, want, FormatWithCommas(n), "n=%d", n)
	}
}

func TestParseKey(t *testing.T) {
	tests := []struct {
		in   string
		want uint32
		ok   bool
	}{
		{"0", 0, true},
		{"42", 42, true},
		{" 42\n", 42, true},
		{"0x2a", 42, true},
		{"0X2A", 42, true},
		{"0xffffffff", 4294967295, true},
		{"010", 10, true},
		{"09", 9, true},
		{"1_000", 0, false},
		{"0b101", 0, false},
		{"0o17", 0, false},
		{"0x", 0, false},
		{"+5", 0, false},
		{"4294967295", 4294967295, true},
		{"4294967296", 0, false},
		{"-1", 0, false},
		{"ten", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKey(tt.in)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatValues(t *testing.T) {
	tests := []struct {
		name  string
		vals  []uint32
		limit int
		want  string
	}{
		{"empty", nil, 5, "[]"},
		{"under limit", []uint32{1, 2}, 5, "[1, 2]"},
		{"at limit", []uint32{1, 2, 3}, 3, "[1, 2, 3]"},
		{"over limit", []uint32{1, 2, 3, 4, 5}, 2, "[1, 2, ... +3 more]"},
		{"no limit", []uint32{1, 2, 3}, 0, "[1, 2, 3]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatValues(tt.vals, tt.limit))
		})
	}
}
