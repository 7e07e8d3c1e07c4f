package fsutil

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// GGUFMagic is the four-byte header every GGUF model file starts with.
var GGUFMagic = []byte("GGUF")

var (
	// ErrNotRegular is returned when a model path names a directory or device.
	ErrNotRegular = errors.New("not a regular file")
	// ErrBadMagic is returned when a file does not start with the GGUF header.
	ErrBadMagic = errors.New("unrecognized model format (missing GGUF header)")
)

// ExpandHome expands a leading '~' to the user's home directory.
func ExpandHome(path string) (string, error) {
	if path == "" {
		return path, nil
	}
	if path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	// handle cases like ~/models/llm
	return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
}

// PathExists checks if the given path exists.
func PathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !errors.Is(err, os.ErrNotExist)
}

// CheckModelFile verifies that path is a readable regular file carrying the
// GGUF header. Errors wrap os.ErrNotExist, ErrNotRegular or ErrBadMagic so
// callers can classify them.
func CheckModelFile(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !fi.Mode().IsRegular() {
		return fmt.Errorf("%s: %w", path, ErrNotRegular)
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	head := make([]byte, len(GGUFMagic))
	if _, err := io.ReadFull(f, head); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%s: file too short: %w", path, ErrBadMagic)
		}
		return fmt.Errorf("read header: %w", err)
	}
	if !bytes.Equal(head, GGUFMagic) {
		return fmt.Errorf("%s: %w", path, ErrBadMagic)
	}
	return nil
}
