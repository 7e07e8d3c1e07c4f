package engine_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"llamachat/internal/engine"
	"llamachat/internal/engine/enginetest"
	"llamachat/pkg/types"
)

// writeGGUF creates a file that passes the header check.
func writeGGUF(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte("GGUF\x03\x00\x00\x00"), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func modelConfig(path string) types.ModelConfig {
	return types.ModelConfig{Path: path, ContextSize: 2048, PreferMMap: true, UseGPU: true}
}

func loadReason(t *testing.T, err error) engine.LoadReason {
	t.Helper()
	var le *engine.ModelLoadError
	if !errors.As(err, &le) {
		t.Fatalf("expected *ModelLoadError, got %T: %v", err, err)
	}
	return le.Reason
}

func TestLoadModel_Success(t *testing.T) {
	p := writeGGUF(t, t.TempDir(), "m.gguf")
	e := &enginetest.Engine{}
	m, err := engine.LoadModel(context.Background(), e, modelConfig(p), zerolog.Nop())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if m == nil || e.Loads() != 1 {
		t.Fatalf("expected one load, got %d", e.Loads())
	}
	if got := e.Configs()[0]; got.Path != p || got.ContextSize != 2048 || !got.PreferMMap || !got.UseGPU {
		t.Fatalf("config not passed through: %+v", got)
	}
	// one model serves many sessions without reloading
	for i := 0; i < 3; i++ {
		if _, err := m.NewSession(types.SessionConfig{}); err != nil {
			t.Fatalf("session %d: %v", i, err)
		}
	}
	if e.Loads() != 1 {
		t.Fatalf("model reloaded: %d loads", e.Loads())
	}
}

func TestLoadModel_Preflight(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.bin")
	if err := os.WriteFile(bad, []byte("not a model"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cases := []struct {
		name string
		cfg  types.ModelConfig
		want engine.LoadReason
	}{
		{"missing", modelConfig(filepath.Join(dir, "missing.gguf")), engine.ReasonNotFound},
		{"directory", modelConfig(dir), engine.ReasonUnsupportedFormat},
		{"bad magic", modelConfig(bad), engine.ReasonUnsupportedFormat},
		{"empty path", modelConfig(""), engine.ReasonInvalidConfig},
		{"context too large", types.ModelConfig{Path: bad, ContextSize: types.MaxContextSize + 1}, engine.ReasonInvalidConfig},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := &enginetest.Engine{}
			_, err := engine.LoadModel(context.Background(), e, tc.cfg, zerolog.Nop())
			if got := loadReason(t, err); got != tc.want {
				t.Fatalf("reason: got %s want %s (%v)", got, tc.want, err)
			}
			if e.Loads() != 0 {
				t.Fatalf("engine must not be called when preflight fails")
			}
		})
	}
}

func TestLoadModel_EngineErrorsClassified(t *testing.T) {
	p := writeGGUF(t, t.TempDir(), "m.gguf")
	cases := []struct {
		err  error
		want engine.LoadReason
	}{
		{errors.New("ggml_cuda_init: failed to initialize CUDA"), engine.ReasonAccelerator},
		{errors.New("failed to allocate buffer: out of memory"), engine.ReasonOutOfMemory},
		{errors.New("unknown model architecture: 'mamba9'"), engine.ReasonUnsupportedFormat},
		{errors.New("something else"), engine.ReasonEngine},
		{engine.ErrDependencyUnavailable("no llama"), engine.ReasonDependencyUnavailable},
	}
	for _, tc := range cases {
		e := &enginetest.Engine{LoadErr: tc.err}
		_, err := engine.LoadModel(context.Background(), e, modelConfig(p), zerolog.Nop())
		if got := loadReason(t, err); got != tc.want {
			t.Fatalf("%v: got %s want %s", tc.err, got, tc.want)
		}
		if !errors.Is(err, tc.err) {
			t.Fatalf("cause not wrapped: %v", err)
		}
	}
}

func TestLoadModel_KeepsEngineLoadError(t *testing.T) {
	p := writeGGUF(t, t.TempDir(), "m.gguf")
	want := &engine.ModelLoadError{Path: p, Reason: engine.ReasonOutOfMemory, Err: errors.New("oom")}
	_, err := engine.LoadModel(context.Background(), &enginetest.Engine{LoadErr: want}, modelConfig(p), zerolog.Nop())
	if err != want {
		t.Fatalf("expected engine error unchanged, got %v", err)
	}
	if !engine.IsModelLoadError(err) {
		t.Fatalf("IsModelLoadError false")
	}
}

func TestLoadModel_NilEngine(t *testing.T) {
	p := writeGGUF(t, t.TempDir(), "m.gguf")
	_, err := engine.LoadModel(context.Background(), nil, modelConfig(p), zerolog.Nop())
	if got := loadReason(t, err); got != engine.ReasonDependencyUnavailable {
		t.Fatalf("got %s", got)
	}
	if !engine.IsDependencyUnavailable(err) {
		t.Fatalf("expected dependency-unavailable cause")
	}
}

func TestModelLoadError_Message(t *testing.T) {
	err := &engine.ModelLoadError{Path: "/m.gguf", Reason: engine.ReasonNotFound, Err: os.ErrNotExist}
	if got, want := err.Error(), "load model /m.gguf: not_found: file does not exist"; got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}
