// Package terminal handles the interactive side of the chat: reading lines
// from the user and writing streamed output back as soon as it arrives.
package terminal

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"
)

// ErrAborted is returned by ReadLine when the user pressed Ctrl-C at the
// prompt.
var ErrAborted = errors.New("input aborted")

// LineReader reads one line of user input per call. It returns io.EOF when
// input is exhausted.
type LineReader interface {
	ReadLine(prompt string) (string, error)
	Close() error
}

// NewLineReader picks a line-editing reader when in and stdout are both
// terminals, and a plain buffered reader otherwise.
func NewLineReader(in io.Reader, out io.Writer) LineReader {
	if f, ok := in.(*os.File); ok && f == os.Stdin && IsTerminal(f) && IsTerminal(out) {
		return newLinerReader()
	}
	return NewPlainReader(in, out)
}

// PlainReader reads newline-terminated lines from any io.Reader. The prompt,
// if non-empty, is written to out before each read.
type PlainReader struct {
	r   *bufio.Reader
	out io.Writer
}

// NewPlainReader wraps in. out may be nil.
func NewPlainReader(in io.Reader, out io.Writer) *PlainReader {
	return &PlainReader{r: bufio.NewReader(in), out: out}
}

func (p *PlainReader) ReadLine(prompt string) (string, error) {
	if prompt != "" && p.out != nil {
		if _, err := io.WriteString(p.out, prompt); err != nil {
			return "", err
		}
	}
	line, err := p.r.ReadString('\n')
	if err != nil {
		// a final line without a trailing newline still counts
		if errors.Is(err, io.EOF) && line != "" {
			return trimEOL(line), nil
		}
		return "", err
	}
	return trimEOL(line), nil
}

func (p *PlainReader) Close() error { return nil }

func trimEOL(s string) string {
	return strings.TrimSuffix(strings.TrimSuffix(s, "\n"), "\r")
}
