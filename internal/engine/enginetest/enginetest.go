// Package enginetest provides a scripted in-memory engine for tests. It never
// touches a model file's contents; each session replays token scripts and
// records what it was asked to do.
package enginetest

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"llamachat/internal/engine"
	"llamachat/pkg/types"
)

// Engine is a fake engine.Engine.
type Engine struct {
	// Script returns the tokens to emit for a turn (0-based). When nil,
	// Tokens is replayed every turn.
	Script func(turn int, req types.InferRequest) []string
	Tokens []string
	// LoadErr, when set, is returned by Load.
	LoadErr error
	// InferErr, when set, decides whether a turn fails. The error is returned
	// after the turn's tokens were emitted up to FailAfter.
	InferErr  func(turn int) error
	FailAfter int

	mu      sync.Mutex
	loads   int
	configs []types.ModelConfig
	models  []*Model
}

// Load records cfg and returns a fresh Model.
func (e *Engine) Load(ctx context.Context, cfg types.ModelConfig) (engine.Model, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loads++
	e.configs = append(e.configs, cfg)
	if e.LoadErr != nil {
		return nil, e.LoadErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m := &Model{e: e, cfg: cfg}
	e.models = append(e.models, m)
	return m, nil
}

// Loads reports how many times Load was called.
func (e *Engine) Loads() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loads
}

// Configs returns the configs passed to Load.
func (e *Engine) Configs() []types.ModelConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]types.ModelConfig(nil), e.configs...)
}

// Models returns every model handed out by Load.
func (e *Engine) Models() []*Model {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*Model(nil), e.models...)
}

// Model is a fake engine.Model.
type Model struct {
	e        *Engine
	cfg      types.ModelConfig
	mu       sync.Mutex
	sessions []*Session
	closed   bool
}

func (m *Model) NewSession(cfg types.SessionConfig) (engine.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, errors.New("model closed")
	}
	s := &Session{model: m}
	m.sessions = append(m.sessions, s)
	return s, nil
}

func (m *Model) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *Model) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Sessions returns the sessions created from this model.
func (m *Model) Sessions() []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*Session(nil), m.sessions...)
}

// Session is a fake engine.Session. Its state token grows by one per Infer
// call, standing in for the KV cache a real engine would accumulate.
type Session struct {
	model    *Model
	state    atomic.Int64
	busy     atomic.Bool
	closed   atomic.Bool
	mu       sync.Mutex
	requests []types.InferRequest
	// StateSeen records the state token observed at the start of each call.
	stateSeen []int64
}

func (s *Session) Infer(ctx context.Context, req types.InferRequest, onToken func(string) error) (types.InferResult, error) {
	if s.closed.Load() {
		return types.InferResult{}, engine.ErrSessionClosed
	}
	if !s.busy.CompareAndSwap(false, true) {
		return types.InferResult{}, engine.ErrSessionBusy
	}
	defer s.busy.Store(false)

	s.mu.Lock()
	turn := len(s.requests)
	s.requests = append(s.requests, req)
	s.stateSeen = append(s.stateSeen, s.state.Load())
	s.mu.Unlock()
	s.state.Add(1)

	e := s.model.e
	tokens := e.Tokens
	if e.Script != nil {
		tokens = e.Script(turn, req)
	}
	var failErr error
	if e.InferErr != nil {
		failErr = e.InferErr(turn)
	}

	start := time.Now()
	res := types.InferResult{FinishReason: types.FinishStop}
	for i, tok := range tokens {
		if failErr != nil && i >= e.FailAfter {
			break
		}
		if err := ctx.Err(); err != nil {
			res.Duration = time.Since(start)
			return res, err
		}
		if err := onToken(tok); err != nil {
			if errors.Is(err, engine.ErrStopGeneration) {
				res.FinishReason = types.FinishHalted
				break
			}
			res.Duration = time.Since(start)
			return res, err
		}
		res.Content += tok
		res.TokensGenerated++
	}
	res.Duration = time.Since(start)
	if failErr != nil {
		return res, failErr
	}
	return res, nil
}

func (s *Session) Close() error {
	s.closed.Store(true)
	return nil
}

// Closed reports whether Close was called.
func (s *Session) Closed() bool { return s.closed.Load() }

// Requests returns the requests received so far.
func (s *Session) Requests() []types.InferRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.InferRequest(nil), s.requests...)
}

// StatesSeen returns the state token observed at the start of each call.
func (s *Session) StatesSeen() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.stateSeen...)
}

// State returns the current state token.
func (s *Session) State() int64 { return s.state.Load() }
