// Command llamachat is an interactive terminal chat with a local GGUF model.
//
//	llamachat --model-path ~/models/llama-2-7b-chat.Q4_K_M.gguf
//
// Each line typed at the prompt is sent to the model as a user turn and the
// reply is streamed back as it is generated. Ctrl-D or Ctrl-C ends the chat.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"llamachat/internal/terminal"
)

func main() {
	// Graceful shutdown (Ctrl+C / SIGTERM)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(defaultApp()).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, terminal.NewStyles(os.Stderr).Error(err.Error()))
		os.Exit(1)
	}
}
