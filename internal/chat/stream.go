package chat

import (
	"context"
	"errors"
	"iter"

	"llamachat/internal/engine"
	"llamachat/pkg/types"
)

var errStreamConsumed = errors.New("token stream already consumed")

// Stream runs one inference call and exposes its filtered output as a
// sequence. Ranging over Tokens drives the engine; breaking out of the range
// halts generation.
type Stream struct {
	ctx     context.Context
	session engine.Session
	req     types.InferRequest
	filter  *StopFilter

	used    bool
	done    bool
	dropped string
	res     types.InferResult
	err     error
}

// NewStream prepares a stream for req on s. Nothing runs until Tokens is
// ranged over.
func NewStream(ctx context.Context, s engine.Session, req types.InferRequest, f *StopFilter) *Stream {
	return &Stream{ctx: ctx, session: s, req: req, filter: f}
}

// Tokens yields assistant content fragments in generation order. It may be
// ranged over once.
func (s *Stream) Tokens() iter.Seq[string] {
	return func(yield func(string) bool) {
		if s.used {
			s.err = errStreamConsumed
			return
		}
		s.used = true
		s.res, s.err = s.session.Infer(s.ctx, s.req, func(tok string) error {
			if s.done {
				return engine.ErrStopGeneration
			}
			emit, stop := s.filter.Push(tok)
			if emit != "" && !yield(emit) {
				s.done = true
				return engine.ErrStopGeneration
			}
			if stop {
				s.done = true
				return engine.ErrStopGeneration
			}
			return nil
		})
		// Text held back as a possible marker start belongs to the reply once
		// the turn ends without the marker.
		tail := s.filter.Flush()
		if s.err == nil && !s.done && tail != "" {
			yield(tail)
			return
		}
		s.dropped = tail
	}
}

// Result is the engine's result once Tokens has finished.
func (s *Stream) Result() types.InferResult { return s.res }

// Err is the inference error, if any, once Tokens has finished.
func (s *Stream) Err() error { return s.err }

// Halted reports whether the stop marker ended the turn.
func (s *Stream) Halted() bool { return s.filter.Halted() }

// Dropped is held-back text that was not printed because the turn failed or
// the consumer stopped early.
func (s *Stream) Dropped() string { return s.dropped }
