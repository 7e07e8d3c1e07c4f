package terminal

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	brandSuccess = lipgloss.Color("10") // bright green
	brandError   = lipgloss.Color("9")
	textMuted    = lipgloss.Color("8")
)

// Styles renders the few decorated lines the chat prints. Colors are dropped
// automatically when the destination is not a color terminal.
type Styles struct {
	success lipgloss.Style
	err     lipgloss.Style
	muted   lipgloss.Style
}

// NewStyles returns styles that detect color support on w.
func NewStyles(w io.Writer) Styles {
	r := lipgloss.NewRenderer(w)
	return Styles{
		success: r.NewStyle().Foreground(brandSuccess),
		err:     r.NewStyle().Foreground(brandError).Bold(true),
		muted:   r.NewStyle().Foreground(textMuted),
	}
}

// Loaded is the confirmation printed once the model is ready.
func (s Styles) Loaded(path string) string {
	return s.success.Render(fmt.Sprintf("Model `%s` loaded!", path))
}

// Error formats a diagnostic line for stderr.
func (s Styles) Error(msg string) string {
	return s.err.Render("error:") + " " + msg
}

// Muted renders secondary text.
func (s Styles) Muted(msg string) string {
	return s.muted.Render(msg)
}
