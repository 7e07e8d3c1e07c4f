package terminal

import (
	"errors"
	"strings"

	"github.com/peterh/liner"
)

// linerReader gives the prompt line editing and an in-memory history for the
// lifetime of the process. History is not persisted.
type linerReader struct {
	line *liner.State
}

func newLinerReader() *linerReader {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	return &linerReader{line: line}
}

func (l *linerReader) ReadLine(prompt string) (string, error) {
	input, err := l.line.Prompt(prompt)
	if err != nil {
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", ErrAborted
		}
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		l.line.AppendHistory(input)
	}
	return input, nil
}

// Close restores the terminal mode.
func (l *linerReader) Close() error {
	return l.line.Close()
}
