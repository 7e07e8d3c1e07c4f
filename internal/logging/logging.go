// Package logging builds the process logger. Diagnostics go to stderr through
// a console writer, or to a rotating file when one is configured, so they
// never mix with the conversation on stdout.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"

	"llamachat/internal/common/fsutil"
)

// Options configures New.
type Options struct {
	// Level is one of off, error, warn, info, debug, trace. Empty or unknown
	// means warn.
	Level string
	// File, when set, receives JSON log lines with rotation instead of Writer.
	File       string
	MaxSizeMB  int
	MaxBackups int
	// Writer is the console destination; nil means os.Stderr.
	Writer  io.Writer
	NoColor bool
}

// LookupLevel maps a level name to a zerolog level. Empty means warn.
func LookupLevel(s string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "disabled", "none":
		return zerolog.Disabled, true
	case "", "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "trace":
		return zerolog.TraceLevel, true
	}
	return zerolog.WarnLevel, false
}

// ParseLevel is LookupLevel with unknown names treated as warn.
func ParseLevel(s string) zerolog.Level {
	l, _ := LookupLevel(s)
	return l
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New returns a logger for opts and a closer that releases the log file, if
// any. The closer is never nil.
func New(opts Options) (zerolog.Logger, io.Closer, error) {
	level := ParseLevel(opts.Level)
	if opts.File != "" {
		if dir := filepath.Dir(opts.File); !fsutil.PathExists(dir) {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return zerolog.Nop(), nopCloser{}, fmt.Errorf("create log directory: %w", err)
			}
		}
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    orDefault(opts.MaxSizeMB, 10),
			MaxBackups: orDefault(opts.MaxBackups, 3),
			MaxAge:     28,
			Compress:   true,
		}
		log := zerolog.New(lj).Level(level).With().Timestamp().Logger()
		return log, lj, nil
	}
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	cw := zerolog.ConsoleWriter{Out: w, NoColor: opts.NoColor, TimeFormat: time.Kitchen}
	log := zerolog.New(cw).Level(level).With().Timestamp().Logger()
	return log, nopCloser{}, nil
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
