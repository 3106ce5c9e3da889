package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatWithCommas renders n with thousands separators, e.g. 1234567 -> "1,234,567".
func FormatWithCommas(n int) string {
	s := strconv.Itoa(n)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}

	var b strings.Builder
	head := len(s) % 3
	if head == 0 {
		head = 3
	}
	b.WriteString(s[:head])
	for i := head; i < len(s); i += 3 {
		b.WriteByte(',')
		b.WriteString(s[i : i+3])
	}
	return sign + b.String()
}

// ParseKey parses a decimal or 0x-prefixed hexadecimal uint32 key.
func ParseKey(s string) (uint32, error) {
	digits, base := strings.TrimSpace(s), 10
	if len(digits) > 2 && (digits[:2] == "0x" || digits[:2] == "0X") {
		digits, base = digits[2:], 16
	}
	v, err := strconv.ParseUint(digits, base, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid key %q: %w", s, err)
	}
	return uint32(v), nil
}

// FormatValues joins vals for display, eliding everything after limit entries.
func FormatValues(vals []uint32, limit int) string {
	if len(vals) == 0 {
		return "[]"
	}
	shown := vals
	if limit > 0 && len(vals) > limit {
		shown = vals[:limit]
	}
	parts := make([]string, len(shown))
	for i, v := range shown {
		parts[i] = strconv.FormatUint(uint64(v), 10)
	}
	out := "[" + strings.Join(parts, ", ")
	if len(shown) < len(vals) {
		out += fmt.Sprintf(", ... +%d more", len(vals)-len(shown))
	}
	return out + "]"
}
