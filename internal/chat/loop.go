package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"llamachat/internal/engine"
	"llamachat/internal/terminal"
	"llamachat/pkg/types"
)

// State is where the loop is in a turn.
type State string

const (
	StateAwaitingInput State = "awaiting_input"
	StateFraming       State = "framing"
	StateInfering      State = "infering"
	StateStreaming     State = "streaming"
	StateTerminated    State = "terminated"
)

// ErrorPolicy decides what a failed inference call does to the conversation.
type ErrorPolicy string

const (
	// PolicyContinue reports the failure and waits for the next line.
	PolicyContinue ErrorPolicy = "continue"
	// PolicyAbort ends the conversation with the error.
	PolicyAbort ErrorPolicy = "abort"
)

// DefaultMarker is printed before each reply.
const DefaultMarker = "👉"

// turnSeparator ends every turn, including empty and failed ones.
const turnSeparator = "\n\n"

// Options configures a Loop. Reader is required.
type Options struct {
	Reader terminal.LineReader
	Out    io.Writer
	ErrOut io.Writer
	Logger zerolog.Logger
	// Seed seeds the per-turn sampling seeds; 0 picks one from the clock.
	Seed             int64
	OnInferenceError ErrorPolicy
	Params           types.InferParams
	Marker           string
	Metrics          *Metrics
}

// Loop is the interactive conversation. It owns the session for its whole
// life and runs one turn at a time.
type Loop struct {
	id      uuid.UUID
	session engine.Session
	reader  terminal.LineReader
	out     *terminal.FlushWriter
	errOut  io.Writer
	styles  terminal.Styles
	log     zerolog.Logger
	rng     *rand.Rand
	policy  ErrorPolicy
	params  types.InferParams
	marker  string
	metrics *Metrics

	state atomic.Value
	turns int
}

// NewLoop builds a loop over session.
func NewLoop(session engine.Session, opts Options) (*Loop, error) {
	if session == nil {
		return nil, errors.New("chat: nil session")
	}
	if opts.Reader == nil {
		return nil, errors.New("chat: nil line reader")
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.ErrOut == nil {
		opts.ErrOut = os.Stderr
	}
	switch opts.OnInferenceError {
	case "":
		opts.OnInferenceError = PolicyContinue
	case PolicyContinue, PolicyAbort:
	default:
		return nil, fmt.Errorf("chat: unknown inference error policy %q", opts.OnInferenceError)
	}
	if opts.Marker == "" {
		opts.Marker = DefaultMarker
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics()
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	id := uuid.New()
	l := &Loop{
		id:      id,
		session: session,
		reader:  opts.Reader,
		out:     terminal.NewFlushWriter(opts.Out),
		errOut:  opts.ErrOut,
		styles:  terminal.NewStyles(opts.ErrOut),
		log:     opts.Logger.With().Str("session", id.String()).Logger(),
		rng:     rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15)),
		policy:  opts.OnInferenceError,
		params:  opts.Params,
		marker:  opts.Marker,
		metrics: opts.Metrics,
	}
	l.state.Store(StateAwaitingInput)
	return l, nil
}

// ID identifies this conversation in logs.
func (l *Loop) ID() uuid.UUID { return l.id }

// State returns the current state. It is safe to call from any goroutine.
func (l *Loop) State() State { return l.state.Load().(State) }

// Turns is the number of turns submitted for inference.
func (l *Loop) Turns() int { return l.turns }

// Metrics returns the loop's counters.
func (l *Loop) Metrics() *Metrics { return l.metrics }

func (l *Loop) setState(s State) {
	prev := l.State()
	l.state.Store(s)
	l.log.Debug().Str("from", string(prev)).Str("to", string(s)).Msg("state")
}

// Run reads lines until input ends, ctx is cancelled or a fatal error occurs.
// End of input, Ctrl-C at the prompt and cancellation all return nil.
func (l *Loop) Run(ctx context.Context) error {
	defer l.setState(StateTerminated)
	for {
		if ctx.Err() != nil {
			l.log.Debug().Msg("context cancelled")
			return nil
		}
		l.setState(StateAwaitingInput)
		line, err := l.readLine(ctx)
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				l.log.Debug().Msg("end of input")
				return nil
			case errors.Is(err, terminal.ErrAborted):
				l.log.Debug().Msg("input aborted")
				return nil
			case ctx.Err() != nil:
				return nil
			}
			return &InputError{Err: err}
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := l.turn(ctx, Turn{Index: l.turns, Text: line}); err != nil {
			return err
		}
	}
}

type readResult struct {
	line string
	err  error
}

// readLine waits for the next line or for ctx, whichever comes first. A
// blocked read is left behind on cancellation; the process is exiting then.
func (l *Loop) readLine(ctx context.Context) (string, error) {
	ch := make(chan readResult, 1)
	go func() {
		line, err := l.reader.ReadLine("")
		ch <- readResult{line: line, err: err}
	}()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		return r.line, r.err
	}
}

func (l *Loop) turn(ctx context.Context, t Turn) error {
	l.turns++
	l.setState(StateFraming)
	req := types.InferRequest{
		Prompt:        t.Prompt(),
		Params:        l.params,
		// llama.cpp seeds are 32-bit
		Seed:          int64(l.rng.Int32()),
		StopSequences: []string{HumanTag},
	}

	l.setState(StateInfering)
	if _, err := l.out.WriteString(l.marker); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	stream := NewStream(ctx, l.session, req, NewStopFilter(HumanTag, AssistantTag))
	var werr error
	for frag := range stream.Tokens() {
		if l.State() != StateStreaming {
			l.setState(StateStreaming)
		}
		if _, werr = l.out.WriteString(frag); werr != nil {
			break
		}
	}
	if werr != nil {
		return fmt.Errorf("write output: %w", werr)
	}
	res := stream.Result()
	if d := stream.Dropped(); d != "" {
		l.log.Debug().Str("text", d).Msg("held-back text not printed")
	}
	l.metrics.duration.Observe(res.Duration.Seconds())

	if err := stream.Err(); err != nil {
		if ctx.Err() != nil {
			l.log.Debug().Int("turn", t.Index).Msg("generation interrupted")
			_, _ = l.out.WriteString(turnSeparator)
			fmt.Fprintln(l.errOut, l.styles.Muted("(interrupted)"))
			return nil
		}
		ierr := &InferenceError{Turn: t.Index, Err: err}
		l.metrics.failures.Inc()
		l.log.Error().Err(err).Int("turn", t.Index).Int("tokens", res.TokensGenerated).Msg("inference failed")
		if l.policy == PolicyAbort {
			return ierr
		}
		_, _ = l.out.WriteString(turnSeparator)
		fmt.Fprintln(l.errOut, l.styles.Error(ierr.Error()))
		return nil
	}

	l.metrics.turns.Inc()
	l.metrics.tokens.Add(float64(res.TokensGenerated))
	if stream.Halted() {
		l.metrics.halts.Inc()
	}
	l.log.Debug().
		Int("turn", t.Index).
		Int("tokens", res.TokensGenerated).
		Str("finish", res.FinishReason).
		Dur("took", res.Duration).
		Msg("turn complete")
	if _, err := l.out.WriteString(turnSeparator); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
