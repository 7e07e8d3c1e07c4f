package engine

import (
	"context"

	"llamachat/pkg/types"
)

// Engine loads models. Concrete implementations (e.g., llama.cpp) satisfy this
// interface; the chat loop never sees anything below it.
type Engine interface {
	// Load reads the model described by cfg. Failures are *ModelLoadError.
	Load(ctx context.Context, cfg types.ModelConfig) (Model, error)
}

// Model is an opaque loaded model. It is only ever invoked, never mutated.
type Model interface {
	// NewSession creates inference state bound to this model.
	NewSession(cfg types.SessionConfig) (Session, error)
	// Close releases the weights.
	Close() error
}

// Session holds a conversation's inference state (token history, caches).
// A session belongs to exactly one model and must not be used by more than
// one Infer call at a time.
type Session interface {
	// Infer runs the prompt against the session state and calls onToken for
	// every generated token. If onToken returns ErrStopGeneration the call
	// ends early and successfully; any other error aborts the call and is
	// returned. Implementations must return when ctx is canceled.
	Infer(ctx context.Context, req types.InferRequest, onToken func(string) error) (types.InferResult, error)
	// Close releases any resources associated with the session.
	Close() error
}
