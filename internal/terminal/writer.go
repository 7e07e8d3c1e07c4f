package terminal

import (
	"bufio"
	"io"
)

type flusher interface {
	Flush() error
}

// FlushWriter pushes every Write through to the underlying writer before
// returning, so a token shows up the moment it is generated.
type FlushWriter struct {
	buf  *bufio.Writer
	sink flusher
}

// NewFlushWriter wraps w. If w itself buffers (has a Flush method), it is
// flushed too.
func NewFlushWriter(w io.Writer) *FlushWriter {
	fw := &FlushWriter{buf: bufio.NewWriter(w)}
	if f, ok := w.(flusher); ok {
		fw.sink = f
	}
	return fw
}

func (f *FlushWriter) Write(p []byte) (int, error) {
	n, err := f.buf.Write(p)
	if err != nil {
		return n, err
	}
	return n, f.Flush()
}

// WriteString is Write for strings.
func (f *FlushWriter) WriteString(s string) (int, error) {
	n, err := f.buf.WriteString(s)
	if err != nil {
		return n, err
	}
	return n, f.Flush()
}

// Flush drains the local buffer and the underlying writer, if it buffers.
func (f *FlushWriter) Flush() error {
	if err := f.buf.Flush(); err != nil {
		return err
	}
	if f.sink != nil {
		return f.sink.Flush()
	}
	return nil
}
