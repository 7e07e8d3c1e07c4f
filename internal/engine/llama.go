//go:build llama

package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	llama "github.com/go-skynet/go-llama.cpp"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"llamachat/pkg/types"
)

// LlamaBuilt reports whether this binary was compiled with llama.cpp support.
const LlamaBuilt = true

// offloadAllLayers asks llama.cpp to place every layer on the accelerator; it
// caps the value at the model's layer count and ignores it on CPU-only builds.
const offloadAllLayers = 999

type llamaEngine struct {
	log zerolog.Logger
}

// NewLlamaEngine returns the llama.cpp engine for this build.
func NewLlamaEngine(log zerolog.Logger) Engine {
	return &llamaEngine{log: log}
}

func (e *llamaEngine) Load(ctx context.Context, cfg types.ModelConfig) (Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(cfg.LoraAdapters) > 1 {
		return nil, &ModelLoadError{
			Path:   cfg.Path,
			Reason: ReasonEngine,
			Err:    fmt.Errorf("go-llama.cpp applies a single LoRA adapter, got %d", len(cfg.LoraAdapters)),
		}
	}
	m, err := llama.New(cfg.Path, modelOptions(cfg)...)
	if err != nil {
		return nil, &ModelLoadError{Path: cfg.Path, Reason: classifyLoadError(err), Err: err}
	}
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	return &llamaModel{model: m, cfg: cfg, threads: threads, log: e.log}, nil
}

func modelOptions(cfg types.ModelConfig) []llama.ModelOption {
	mo := []llama.ModelOption{
		llama.SetContext(cfg.ContextSize),
		llama.SetMMap(cfg.PreferMMap),
	}
	if cfg.UseGPU {
		layers := offloadAllLayers
		if cfg.GPULayers != nil {
			layers = *cfg.GPULayers
		}
		mo = append(mo, llama.SetGPULayers(layers))
	}
	if len(cfg.LoraAdapters) == 1 {
		mo = append(mo, llama.SetLoraAdapter(cfg.LoraAdapters[0]))
	}
	return mo
}

// llamaModel owns the loaded weights. go-llama.cpp keeps a single context per
// model, so Predict calls are serialized through mu.
type llamaModel struct {
	mu      sync.Mutex
	model   *llama.LLama
	cfg     types.ModelConfig
	threads int
	log     zerolog.Logger
}

func (m *llamaModel) NewSession(sc types.SessionConfig) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.model == nil {
		return nil, errors.New("llama model not initialized")
	}
	budget := sc.ContextBudget
	if budget <= 0 || budget > m.cfg.ContextSize {
		budget = m.cfg.ContextSize
	}
	cache := filepath.Join(os.TempDir(), "llamachat-"+uuid.NewString()+".promptcache")
	return &llamaSession{m: m, budget: budget, cachePath: cache}, nil
}

func (m *llamaModel) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.model != nil {
		m.model.Free()
		m.model = nil
	}
	return nil
}

// llamaSession keeps the conversation transcript and a prompt cache file so
// earlier turns are not re-evaluated on every call.
type llamaSession struct {
	m         *llamaModel
	budget    int
	cachePath string
	turns     []string
	busy      atomic.Bool
	closed    atomic.Bool
}

func (s *llamaSession) Infer(ctx context.Context, req types.InferRequest, onToken func(string) error) (types.InferResult, error) {
	if s.closed.Load() {
		return types.InferResult{}, ErrSessionClosed
	}
	if !s.busy.CompareAndSwap(false, true) {
		return types.InferResult{}, ErrSessionBusy
	}
	defer s.busy.Store(false)

	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.model == nil {
		return types.InferResult{}, errors.New("llama model not initialized")
	}

	if req.PlayBackPreviousTokens {
		for _, t := range s.turns {
			if err := onToken(t); err != nil {
				if errors.Is(err, ErrStopGeneration) {
					break
				}
				return types.InferResult{}, err
			}
		}
	}

	prompt := s.transcript(req.Prompt)
	var (
		reply strings.Builder
		n     int
		cbErr error
	)
	// Bridge token streaming to onToken and respect cancellation
	s.m.model.SetTokenCallback(func(tok string) bool {
		select {
		case <-ctx.Done():
			return false
		default:
		}
		if err := onToken(tok); err != nil {
			cbErr = err
			return false
		}
		reply.WriteString(tok)
		n++
		return true
	})

	start := time.Now()
	_, err := s.m.model.Predict(prompt, predictOptions(req, s.m.threads, s.cachePath)...)
	res := types.InferResult{TokensGenerated: n, Duration: time.Since(start), FinishReason: types.FinishStop}
	if ctx.Err() != nil {
		return res, ctx.Err()
	}
	if cbErr != nil && !errors.Is(cbErr, ErrStopGeneration) {
		return res, cbErr
	}
	if err != nil {
		return res, err
	}
	if cbErr != nil {
		res.FinishReason = types.FinishHalted
	} else if req.MaxTokens > 0 && n >= req.MaxTokens {
		res.FinishReason = types.FinishLength
	}
	res.Content = cutAtStop(reply.String(), req.StopSequences)
	s.turns = append(s.turns, turnRecord(req.Prompt, res.Content))
	s.m.log.Debug().
		Int("tokens", n).
		Int("turns", len(s.turns)).
		Dur("took", res.Duration).
		Msg("llama predict finished")
	return res, nil
}

// transcript joins retained turns with the new prompt, dropping the oldest
// turns until the text leaves a quarter of the budget for the reply.
func (s *llamaSession) transcript(prompt string) string {
	kept, dropped := trimTurns(s.turns, prompt, promptLimit(s.budget), s.countTokens)
	if dropped > 0 {
		s.turns = kept
		// the cached prefix no longer matches the transcript
		_ = os.Remove(s.cachePath)
		s.m.log.Debug().Int("dropped_turns", dropped).Int("kept_turns", len(kept)).Msg("trimmed transcript")
	}
	return strings.Join(s.turns, "") + prompt
}

func (s *llamaSession) countTokens(text string) int {
	n, _, err := s.m.model.TokenizeString(text)
	if err != nil {
		return len(text) / 4
	}
	return int(n)
}

func (s *llamaSession) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	if err := os.Remove(s.cachePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func zn(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func zf(v, def float32) float32 {
	if v > 0 {
		return v
	}
	return def
}

// predictOptions converts request params into go-llama.cpp options
func predictOptions(req types.InferRequest, threads int, cachePath string) []llama.PredictOption {
	p := req.Params
	tokens := req.MaxTokens
	if tokens <= 0 {
		tokens = -1 // generate until EOS or the context is full
	}
	po := []llama.PredictOption{
		llama.SetTokens(tokens),
		llama.SetThreads(max(1, threads)),
		llama.SetTopP(zf(p.TopP, llama.DefaultOptions.TopP)),
		llama.SetTopK(zn(p.TopK, llama.DefaultOptions.TopK)),
		llama.SetTemperature(zf(p.Temperature, llama.DefaultOptions.Temperature)),
		llama.SetPenalty(zf(p.RepeatPenalty, llama.DefaultOptions.Penalty)),
		llama.SetPathPromptCache(cachePath),
		llama.EnablePromptCacheAll,
	}
	if req.Seed != 0 {
		po = append(po, llama.SetSeed(engineSeed(req.Seed)))
	}
	if len(req.StopSequences) > 0 {
		po = append(po, llama.SetStopWords(req.StopSequences...))
	}
	return po
}
