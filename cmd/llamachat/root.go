package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"llamachat/internal/chat"
	"llamachat/internal/config"
	"llamachat/internal/engine"
	"llamachat/internal/logging"
	"llamachat/internal/registry"
	"llamachat/internal/terminal"
	"llamachat/pkg/types"
)

// app carries the process edges so tests can swap them.
type app struct {
	in        io.Reader
	out       io.Writer
	errOut    io.Writer
	getenv    func(string) string
	newEngine func(zerolog.Logger) engine.Engine
}

func defaultApp() app {
	return app{
		in:        os.Stdin,
		out:       os.Stdout,
		errOut:    os.Stderr,
		getenv:    os.Getenv,
		newEngine: engine.NewLlamaEngine,
	}
}

func newRootCmd(a app) *cobra.Command {
	var modelPath string
	root := &cobra.Command{
		Use:   "llamachat --model-path <path>",
		Short: "Chat with a local GGUF model in the terminal",
		Long: "Loads a GGUF model once and runs an interactive conversation with it.\n\n" +
			"Environment:\n" +
			"  " + config.EnvConfig + "     optional config file (.yaml, .yml, .json, .toml)\n" +
			"  " + config.EnvLogLevel + "  off|error|warn|info|debug (default warn)\n" +
			"  " + config.EnvLogFile + "   write logs to a rotating file instead of stderr",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd.Context(), modelPath)
		},
	}
	root.Flags().StringVar(&modelPath, "model-path", "", "GGUF model file, or a directory holding exactly one")
	_ = root.MarkFlagRequired("model-path")
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)
	return root
}

func (a app) run(ctx context.Context, modelPath string) error {
	cfg, err := config.Resolve(a.getenv, config.Config{ModelPath: modelPath})
	if err != nil {
		return err
	}
	log, closer, err := logging.New(logging.Options{
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
		Writer:  a.errOut,
		NoColor: !terminal.IsTerminal(a.errOut),
	})
	if err != nil {
		return err
	}
	defer closer.Close()

	resolved, err := registry.Resolve(cfg.ModelPath)
	if err != nil {
		return &engine.ModelLoadError{Path: cfg.ModelPath, Reason: engine.ReasonNotFound, Err: err}
	}
	cfg.ModelPath = resolved
	mc, err := cfg.ModelConfig()
	if err != nil {
		return &engine.ModelLoadError{Path: cfg.ModelPath, Reason: engine.ReasonInvalidConfig, Err: err}
	}

	model, err := engine.LoadModel(ctx, a.newEngine(log), mc, log)
	if err != nil {
		log.Debug().Err(err).Str("path", mc.Path).Msg("model load failed")
		return err
	}
	defer model.Close()
	fmt.Fprintln(a.out, terminal.NewStyles(a.out).Loaded(mc.Path))

	sess, err := model.NewSession(types.SessionConfig{})
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.Close()

	reader := terminal.NewLineReader(a.in, a.out)
	defer reader.Close()

	loop, err := chat.NewLoop(sess, chat.Options{
		Reader:           reader,
		Out:              a.out,
		ErrOut:           a.errOut,
		Logger:           log,
		Seed:             cfg.Seed,
		OnInferenceError: chat.ErrorPolicy(cfg.OnInferenceError),
	})
	if err != nil {
		return err
	}
	runErr := loop.Run(ctx)
	s := loop.Metrics().Summary()
	log.Info().
		Str("session", loop.ID().String()).
		Int("turns", s.Turns).
		Int("tokens", s.Tokens).
		Int("failures", s.Failures).
		Int("halts", s.Halts).
		Msg("session ended")
	return runErr
}
