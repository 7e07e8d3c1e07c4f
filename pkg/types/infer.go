package types

import "time"

// InferParams are sampling parameters. Zero values defer to the engine's defaults.
type InferParams struct {
	Temperature   float32 `json:"temperature,omitempty"`
	TopP          float32 `json:"top_p,omitempty"`
	TopK          int     `json:"top_k,omitempty"`
	RepeatPenalty float32 `json:"repeat_penalty,omitempty"`
}

// InferRequest is one inference call against a session.
type InferRequest struct {
	// Prompt text for this turn only; earlier turns live in the session.
	Prompt string `json:"prompt"`
	// Sampling parameters.
	Params InferParams `json:"params"`
	// Seed for the sampler, drawn by the caller so runs are reproducible.
	Seed int64 `json:"seed"`
	// Re-emit tokens already held by the session before generating.
	PlayBackPreviousTokens bool `json:"play_back_previous_tokens,omitempty"`
	// Cap on new tokens; 0 lets the engine stop on its own.
	MaxTokens int `json:"max_tokens,omitempty"`
	// Sequences that end the generation when produced.
	StopSequences []string `json:"stop,omitempty"`
}

// InferResult summarizes a finished inference call.
type InferResult struct {
	Content         string        `json:"content"`
	TokensGenerated int           `json:"tokens_generated"`
	Duration        time.Duration `json:"duration"`
	FinishReason    string        `json:"finish_reason"`
}

// Finish reasons reported in InferResult.
const (
	FinishStop   = "stop"
	FinishLength = "length"
	FinishHalted = "halted"
)
