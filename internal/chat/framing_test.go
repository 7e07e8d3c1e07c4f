package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrame(t *testing.T) {
	assert.Equal(t, "USER: hello\nASSISTANT:", Frame("hello"))
	assert.Equal(t, "USER: hello\nASSISTANT:", Turn{Index: 4, Text: "hello"}.Prompt())
}

func TestFrameRoundTrip(t *testing.T) {
	inputs := []string{
		"hello",
		"",
		"  padded  ",
		"multi\nline",
		"USER: nested tag",
		"ends with ASSISTANT:",
		"unicode ☕ ünïcødé",
	}
	for _, in := range inputs {
		got, ok := Unframe(Frame(in))
		require.True(t, ok, "Unframe(Frame(%q))", in)
		assert.Equal(t, in, got)
	}
}

func TestUnframe_Rejects(t *testing.T) {
	for _, p := range []string{"hello", "USER:hello\nASSISTANT:", "USER: hello", "USER: hello\nASSISTANT: hi"} {
		_, ok := Unframe(p)
		assert.False(t, ok, "Unframe(%q)", p)
	}
}
