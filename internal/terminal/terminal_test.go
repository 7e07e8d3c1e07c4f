package terminal

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlainReader_Lines(t *testing.T) {
	r := NewPlainReader(strings.NewReader("hello\r\nsecond\nlast"), nil)
	for _, want := range []string{"hello", "second", "last"} {
		got, err := r.ReadLine("")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := r.ReadLine("")
	assert.ErrorIs(t, err, io.EOF)
}

func TestPlainReader_EmptyInput(t *testing.T) {
	r := NewPlainReader(strings.NewReader(""), nil)
	_, err := r.ReadLine("")
	assert.ErrorIs(t, err, io.EOF)
}

func TestPlainReader_WritesPrompt(t *testing.T) {
	var out bytes.Buffer
	r := NewPlainReader(strings.NewReader("x\n"), &out)
	_, err := r.ReadLine("> ")
	require.NoError(t, err)
	assert.Equal(t, "> ", out.String())
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("device gone") }

func TestPlainReader_PropagatesErrors(t *testing.T) {
	r := NewPlainReader(failingReader{}, nil)
	_, err := r.ReadLine("")
	require.Error(t, err)
	assert.NotErrorIs(t, err, io.EOF)
}

func TestNewLineReader_NonTTY(t *testing.T) {
	lr := NewLineReader(strings.NewReader("a\n"), io.Discard)
	_, ok := lr.(*PlainReader)
	assert.True(t, ok, "expected plain reader for non-terminal input, got %T", lr)
	assert.NoError(t, lr.Close())
}

// countingWriter records how many writes reached it.
type countingWriter struct {
	bytes.Buffer
	writes int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	c.writes++
	return c.Buffer.Write(p)
}

func TestFlushWriter_FlushesEachWrite(t *testing.T) {
	var cw countingWriter
	fw := NewFlushWriter(&cw)
	for i, tok := range []string{" hi", " there", "\n\n"} {
		_, err := fw.WriteString(tok)
		require.NoError(t, err)
		assert.Equal(t, i+1, cw.writes, "token %q not flushed", tok)
	}
	assert.Equal(t, " hi there\n\n", cw.String())
}

func TestFlushWriter_FlushesBufferedSink(t *testing.T) {
	var raw bytes.Buffer
	sink := bufio.NewWriter(&raw)
	fw := NewFlushWriter(sink)
	_, err := fw.Write([]byte("tok"))
	require.NoError(t, err)
	assert.Equal(t, "tok", raw.String())
}

func TestStyles_PlainOutsideTerminal(t *testing.T) {
	s := NewStyles(&bytes.Buffer{})
	assert.Equal(t, "Model `/m/a.gguf` loaded!", s.Loaded("/m/a.gguf"))
	assert.Equal(t, "error: boom", s.Error("boom"))
	assert.Equal(t, "quiet", s.Muted("quiet"))
}
