package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"llamachat/internal/common/fsutil"
	"llamachat/internal/logging"
	"llamachat/pkg/types"
)

// Environment variables read by Resolve.
const (
	EnvConfig   = "LLAMACHAT_CONFIG"
	EnvLogLevel = "LLAMACHAT_LOG_LEVEL"
	EnvLogFile  = "LLAMACHAT_LOG_FILE"
)

// What the loop does when a turn fails.
const (
	OnErrorContinue = "continue"
	OnErrorAbort    = "abort"
)

// Config holds runtime parameters for a chat session.
// Zero values mean "unspecified"; Merge only copies fields that are set, and
// Default supplies the rest.
type Config struct {
	ModelPath        string   `json:"model_path" yaml:"model_path" toml:"model_path"`
	ContextSize      int      `json:"context_size" yaml:"context_size" toml:"context_size"`
	PreferMMap       *bool    `json:"prefer_mmap" yaml:"prefer_mmap" toml:"prefer_mmap"`
	UseGPU           *bool    `json:"use_gpu" yaml:"use_gpu" toml:"use_gpu"`
	GPULayers        *int     `json:"gpu_layers" yaml:"gpu_layers" toml:"gpu_layers"`
	LoraAdapters     []string `json:"lora_adapters" yaml:"lora_adapters" toml:"lora_adapters"`
	Threads          int      `json:"threads" yaml:"threads" toml:"threads"`
	Seed             int64    `json:"seed" yaml:"seed" toml:"seed"`
	OnInferenceError string   `json:"on_inference_error" yaml:"on_inference_error" toml:"on_inference_error"`
	LogLevel         string   `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFile          string   `json:"log_file" yaml:"log_file" toml:"log_file"`
}

// Default returns the built-in configuration.
func Default() Config {
	t := true
	return Config{
		ContextSize:      types.DefaultContextSize,
		PreferMMap:       &t,
		UseGPU:           &t,
		OnInferenceError: OnErrorContinue,
		LogLevel:         "warn",
	}
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	full, err := fsutil.ExpandHome(path)
	if err != nil {
		return cfg, err
	}
	b, err := os.ReadFile(full)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// Merge overlays the fields set in o onto c.
func (c Config) Merge(o Config) Config {
	if o.ModelPath != "" {
		c.ModelPath = o.ModelPath
	}
	if o.ContextSize != 0 {
		c.ContextSize = o.ContextSize
	}
	if o.PreferMMap != nil {
		c.PreferMMap = o.PreferMMap
	}
	if o.UseGPU != nil {
		c.UseGPU = o.UseGPU
	}
	if o.GPULayers != nil {
		c.GPULayers = o.GPULayers
	}
	if o.LoraAdapters != nil {
		c.LoraAdapters = append([]string(nil), o.LoraAdapters...)
	}
	if o.Threads != 0 {
		c.Threads = o.Threads
	}
	if o.Seed != 0 {
		c.Seed = o.Seed
	}
	if o.OnInferenceError != "" {
		c.OnInferenceError = o.OnInferenceError
	}
	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
	}
	if o.LogFile != "" {
		c.LogFile = o.LogFile
	}
	return c
}

// Resolve builds the effective configuration: defaults, then the file named
// by LLAMACHAT_CONFIG, then the logging env overrides, then flags.
func Resolve(getenv func(string) string, flags Config) (Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	cfg := Default()
	if p := strings.TrimSpace(getenv(EnvConfig)); p != "" {
		fileCfg, err := Load(p)
		if err != nil {
			return cfg, fmt.Errorf("config %s: %w", EnvConfig, err)
		}
		cfg = cfg.Merge(fileCfg)
	}
	cfg = cfg.Merge(Config{
		LogLevel: strings.TrimSpace(getenv(EnvLogLevel)),
		LogFile:  strings.TrimSpace(getenv(EnvLogFile)),
	})
	cfg = cfg.Merge(flags)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the fields that ModelConfig does not cover.
func (c Config) Validate() error {
	switch c.OnInferenceError {
	case "", OnErrorContinue, OnErrorAbort:
	default:
		return fmt.Errorf("on_inference_error must be %q or %q, got %q", OnErrorContinue, OnErrorAbort, c.OnInferenceError)
	}
	if _, ok := logging.LookupLevel(c.LogLevel); !ok {
		return fmt.Errorf("unknown log_level %q (want off, error, warn, info, debug or trace)", c.LogLevel)
	}
	return nil
}

// ModelConfig converts c into the engine's load parameters. The model path is
// taken as given; directory resolution happens in the registry.
func (c Config) ModelConfig() (types.ModelConfig, error) {
	path, err := fsutil.ExpandHome(c.ModelPath)
	if err != nil {
		return types.ModelConfig{}, err
	}
	mc := types.ModelConfig{
		Path:         path,
		ContextSize:  c.ContextSize,
		PreferMMap:   c.PreferMMap == nil || *c.PreferMMap,
		UseGPU:       c.UseGPU == nil || *c.UseGPU,
		LoraAdapters: append([]string(nil), c.LoraAdapters...),
		GPULayers:    c.GPULayers,
		Threads:      c.Threads,
	}
	if mc.ContextSize == 0 {
		mc.ContextSize = types.DefaultContextSize
	}
	for i, a := range mc.LoraAdapters {
		if mc.LoraAdapters[i], err = fsutil.ExpandHome(a); err != nil {
			return mc, err
		}
	}
	if err := mc.Validate(); err != nil {
		return mc, fmt.Errorf("invalid model config: %w", err)
	}
	return mc, nil
}
