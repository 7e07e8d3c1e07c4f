package engine

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"llamachat/internal/common/fsutil"
	"llamachat/pkg/types"
)

// LoadModel validates cfg, checks the model file and asks e to load it. Every
// failure comes back as a *ModelLoadError so callers can report it uniformly.
func LoadModel(ctx context.Context, e Engine, cfg types.ModelConfig, log zerolog.Logger) (Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, &ModelLoadError{Path: cfg.Path, Reason: ReasonInvalidConfig, Err: err}
	}
	if err := fsutil.CheckModelFile(cfg.Path); err != nil {
		return nil, &ModelLoadError{Path: cfg.Path, Reason: classifyLoadError(err), Err: err}
	}
	if e == nil {
		return nil, &ModelLoadError{Path: cfg.Path, Reason: ReasonDependencyUnavailable, Err: ErrDependencyUnavailable("no engine configured")}
	}

	log.Debug().
		Str("path", cfg.Path).
		Int("context_size", cfg.ContextSize).
		Bool("mmap", cfg.PreferMMap).
		Bool("gpu", cfg.UseGPU).
		Int("lora_adapters", len(cfg.LoraAdapters)).
		Msg("loading model")
	start := time.Now()
	m, err := e.Load(ctx, cfg)
	if err != nil {
		var le *ModelLoadError
		if errors.As(err, &le) {
			return nil, le
		}
		return nil, &ModelLoadError{Path: cfg.Path, Reason: classifyLoadError(err), Err: err}
	}
	if m == nil {
		return nil, &ModelLoadError{Path: cfg.Path, Reason: ReasonEngine, Err: errors.New("engine returned no model")}
	}
	log.Info().Str("path", cfg.Path).Dur("took", time.Since(start)).Msg("model loaded")
	return m, nil
}
