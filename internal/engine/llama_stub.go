//go:build !llama

package engine

// This file provides a no-CGO stub for the llama engine. It is compiled when
// the 'llama' build tag is NOT set, keeping default builds and CI CGO-free.
// The real engine lives in llama.go (tagged 'llama').

import (
	"context"

	"github.com/rs/zerolog"

	"llamachat/pkg/types"
)

// LlamaBuilt reports whether this binary was compiled with llama.cpp support.
const LlamaBuilt = false

// llamaEngine refuses to load anything without the 'llama' build tag, rather
// than pretending to run a model.
type llamaEngine struct {
	log zerolog.Logger
}

// NewLlamaEngine returns the llama.cpp engine for this build.
func NewLlamaEngine(log zerolog.Logger) Engine {
	return &llamaEngine{log: log}
}

func (e *llamaEngine) Load(ctx context.Context, cfg types.ModelConfig) (Model, error) {
	e.log.Debug().Str("path", cfg.Path).Msg("llama engine unavailable in this build")
	return nil, &ModelLoadError{
		Path:   cfg.Path,
		Reason: ReasonDependencyUnavailable,
		Err:    ErrDependencyUnavailable("llama support not built (missing 'llama' build tag)"),
	}
}
