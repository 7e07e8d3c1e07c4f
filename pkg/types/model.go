package types

import (
	"errors"
	"fmt"
	"strings"
)

// Limits applied by ModelConfig.Validate.
const (
	DefaultContextSize = 2048
	MaxContextSize     = 32768
)

// ModelConfig describes how a model file is loaded. It is built once at startup
// and handed to the engine by value; nothing mutates it afterwards.
type ModelConfig struct {
	// Path to the model file on disk.
	// example: /home/user/models/llama-2-7b-chat.Q4_K_M.gguf
	Path string `json:"path" example:"/home/user/models/llama-2-7b-chat.Q4_K_M.gguf"`
	// Context window in tokens.
	// example: 2048
	ContextSize int `json:"context_size" example:"2048"`
	// Memory-map the weights instead of reading them into memory.
	PreferMMap bool `json:"prefer_mmap"`
	// Use an accelerator if the engine was built with one. Best effort.
	UseGPU bool `json:"use_gpu"`
	// Optional LoRA adapters applied at load time.
	LoraAdapters []string `json:"lora_adapters,omitempty"`
	// Layers to offload to the accelerator; nil lets the engine decide.
	GPULayers *int `json:"gpu_layers,omitempty"`
	// Worker threads used for inference; 0 means one per CPU.
	Threads int `json:"threads,omitempty"`
}

// Validate checks the invariants the engine relies on.
func (c ModelConfig) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Path) == "" {
		errs = append(errs, errors.New("model path is empty"))
	}
	if c.ContextSize <= 0 || c.ContextSize > MaxContextSize {
		errs = append(errs, fmt.Errorf("context size %d out of range (1..%d)", c.ContextSize, MaxContextSize))
	}
	if c.GPULayers != nil && *c.GPULayers < 0 {
		errs = append(errs, fmt.Errorf("gpu layers must be >= 0, got %d", *c.GPULayers))
	}
	if c.Threads < 0 {
		errs = append(errs, fmt.Errorf("threads must be >= 0, got %d", c.Threads))
	}
	for i, a := range c.LoraAdapters {
		if strings.TrimSpace(a) == "" {
			errs = append(errs, fmt.Errorf("lora adapter %d has empty path", i))
		}
	}
	return errors.Join(errs...)
}

// SessionConfig holds per-session settings. The zero value is the default
// session configuration.
type SessionConfig struct {
	// Token budget for retained conversation; 0 uses the model context size.
	ContextBudget int `json:"context_budget,omitempty"`
}
