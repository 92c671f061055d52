package gen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscapeString(t *testing.T) {
	t.Run("specials", func(t *testing.T) {
		assert.Equal(t, `He said \"hi\"`, EscapeString(`He said "hi"`))
		assert.Equal(t, `a\\b`, EscapeString(`a\b`))
		assert.Equal(t, `line\nbreak`, EscapeString("line\nbreak"))
		assert.Equal(t, `tab\there`, EscapeString("tab\there"))
	})
	t.Run("round trip", func(t *testing.T) {
		inputs := []string{
			`plain`,
			`with "quotes" and \backslash`,
			"multi\nline\twith\rall",
			`already \n looking`,
		}
		for _, in := range inputs {
			assert.Equal(t, in, UnescapeString(EscapeString(in)), "input %q", in)
		}
	})
	t.Run("unescape then escape is stable", func(t *testing.T) {
		// Escaping the decoded form of an escaped string reproduces it,
		// so repeated passes through the pipeline never double-escape.
		escaped := EscapeString(`say "hi"` + "\n")
		assert.Equal(t, escaped, EscapeString(UnescapeString(escaped)))
	})
}

func TestStringLiteral(t *testing.T) {
	t.Run("single line", func(t *testing.T) {
		assert.Equal(t, `"hello"`, StringLiteral("hello"))
		assert.Equal(t, `"say \"hi\" to {name}"`, StringLiteral(`say "hi" to {name}`))
	})
	t.Run("multi line", func(t *testing.T) {
		lit := StringLiteral("first\nsecond")
		assert.True(t, strings.HasPrefix(lit, `"""`))
		assert.True(t, strings.HasSuffix(lit, `"""`))
		assert.Contains(t, lit, "first\nsecond")
	})
	t.Run("multi line with trailing quote", func(t *testing.T) {
		lit := StringLiteral("a\nb\"")
		assert.True(t, strings.HasSuffix(lit, `\""""`))
	})
	t.Run("booleans and ints", func(t *testing.T) {
		assert.Equal(t, "True", BoolLiteral(true))
		assert.Equal(t, "False", BoolLiteral(false))
		assert.Equal(t, "42", IntLiteral(42))
	})
}

func TestIdentifier(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"start-1", "start_1"},
		{"Main Menu", "main_menu"},
		{"привет", "privet"},
		{"Caffè", "caffe"},
		{"123abc", "node_123abc"},
		{"", "node_"},
		{"--a--b--", "a_b"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Identifier(tt.in))
		})
	}
}

func TestIdentTable(t *testing.T) {
	tab := newIdentTable()
	require.Equal(t, "handle_x", tab.claim("handle_x"))
	require.Equal(t, "handle_x_2", tab.claim("handle_x"))
	require.Equal(t, "handle_x_3", tab.claim("handle_x"))
	require.Equal(t, "handle_y", tab.claim("handle_y"))
}

func TestTokenTail(t *testing.T) {
	assert.Equal(t, "short", tokenTail("short", 24))
	long := strings.Repeat("x", 30) + "_tail_12345"
	tail := tokenTail(long, 24)
	assert.LessOrEqual(t, len(tail), 24)
	assert.True(t, strings.HasSuffix(tail, "tail_12345"))
	assert.False(t, strings.HasPrefix(tail, "_"))
}
