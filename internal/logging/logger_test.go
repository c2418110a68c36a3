package logging

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		in     string
		max    int
		expect string
	}{
		{"short", 10, "short"},
		{"  line one\nline two  ", 40, "line one line two"},
		{"abcdefgh", 3, "abc..."},
		{"café au lait", 4, "café..."},
		{"日本語のテキスト", 2, "日本..."},
	}
	for _, tt := range tests {
		got := Truncate(tt.in, tt.max)
		assert.Equal(t, tt.expect, got, tt.in)
		assert.True(t, utf8.ValidString(got), tt.in)
	}
}
