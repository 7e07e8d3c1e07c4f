package engine

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"llamachat/internal/common/fsutil"
)

var (
	// ErrStopGeneration is returned by a token callback to end generation
	// early. Engines treat it as a normal finish.
	ErrStopGeneration = errors.New("stop generation")
	// ErrSessionBusy reports a second Infer call on a session already in use.
	ErrSessionBusy = errors.New("session already has an inference in flight")
	// ErrSessionClosed reports use of a session after Close.
	ErrSessionClosed = errors.New("session closed")
)

// LoadReason classifies why a model failed to load.
type LoadReason string

const (
	ReasonNotFound              LoadReason = "not_found"
	ReasonUnsupportedFormat     LoadReason = "unsupported_format"
	ReasonIO                    LoadReason = "io"
	ReasonAccelerator           LoadReason = "accelerator"
	ReasonOutOfMemory           LoadReason = "out_of_memory"
	ReasonDependencyUnavailable LoadReason = "dependency_unavailable"
	ReasonInvalidConfig         LoadReason = "invalid_config"
	ReasonEngine                LoadReason = "engine"
)

// ModelLoadError is returned when a model cannot be loaded. It is fatal for
// the process: the conversation never starts.
type ModelLoadError struct {
	Path   string
	Reason LoadReason
	Err    error
}

func (e *ModelLoadError) Error() string {
	return fmt.Sprintf("load model %s: %s: %v", e.Path, e.Reason, e.Err)
}

func (e *ModelLoadError) Unwrap() error { return e.Err }

// IsModelLoadError reports whether err is (or wraps) a *ModelLoadError.
func IsModelLoadError(err error) bool {
	var le *ModelLoadError
	return errors.As(err, &le)
}

// dependencyUnavailableError signals a missing native dependency (e.g., a
// binary built without the llama tag).
type dependencyUnavailableError struct{ msg string }

func (e dependencyUnavailableError) Error() string { return e.msg }

// ErrDependencyUnavailable constructs a dependencyUnavailableError.
func ErrDependencyUnavailable(msg string) error { return dependencyUnavailableError{msg: msg} }

// IsDependencyUnavailable reports whether err indicates a missing runtime dependency.
func IsDependencyUnavailable(err error) bool {
	var de dependencyUnavailableError
	return errors.As(err, &de)
}

// classifyLoadError maps an error from the preflight check or the engine to a
// LoadReason. Native loaders only give us strings, so those are matched on
// well-known fragments.
func classifyLoadError(err error) LoadReason {
	switch {
	case err == nil:
		return ReasonEngine
	case errors.Is(err, os.ErrNotExist):
		return ReasonNotFound
	case errors.Is(err, fsutil.ErrBadMagic), errors.Is(err, fsutil.ErrNotRegular):
		return ReasonUnsupportedFormat
	case errors.Is(err, os.ErrPermission):
		return ReasonIO
	case IsDependencyUnavailable(err):
		return ReasonDependencyUnavailable
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "out of memory"), strings.Contains(msg, "failed to allocate"):
		return ReasonOutOfMemory
	case strings.Contains(msg, "cuda"), strings.Contains(msg, "metal"), strings.Contains(msg, "vulkan"), strings.Contains(msg, "gpu"):
		return ReasonAccelerator
	case strings.Contains(msg, "invalid magic"), strings.Contains(msg, "unknown model architecture"), strings.Contains(msg, "unsupported"):
		return ReasonUnsupportedFormat
	}
	return ReasonEngine
}
