package chat

import (
	"errors"
	"fmt"
)

// InferenceError reports a failed engine call for a turn.
type InferenceError struct {
	Turn int
	Err  error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("turn %d: error inferring: %v", e.Turn, e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }

// IsInferenceError reports whether err is (or wraps) an *InferenceError.
func IsInferenceError(err error) bool {
	var ie *InferenceError
	return errors.As(err, &ie)
}

// InputError reports a failure reading user input other than end of input.
type InputError struct {
	Err error
}

func (e *InputError) Error() string { return fmt.Sprintf("read input: %v", e.Err) }

func (e *InputError) Unwrap() error { return e.Err }

// IsInputError reports whether err is (or wraps) an *InputError.
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}
