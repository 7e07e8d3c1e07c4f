// Package chat runs the conversation: it frames each user line as a turn,
// hands it to the engine session and streams the assistant's reply back to
// the terminal.
package chat

import "strings"

// Role tags used to frame a turn. The model is expected to continue after
// AssistantTag and, left alone, to start the next HumanTag turn itself.
const (
	HumanTag     = "USER:"
	AssistantTag = "ASSISTANT:"
)

// Turn is one line of user input.
type Turn struct {
	Index int
	Text  string
}

// Prompt returns the framed text submitted to the engine for t.
func (t Turn) Prompt() string { return Frame(t.Text) }

// Frame wraps s in the role tags: "USER: s\nASSISTANT:".
func Frame(s string) string {
	return HumanTag + " " + s + "\n" + AssistantTag
}

// Unframe recovers the user text from a framed prompt.
func Unframe(p string) (string, bool) {
	rest, ok := strings.CutPrefix(p, HumanTag+" ")
	if !ok {
		return "", false
	}
	return strings.CutSuffix(rest, "\n"+AssistantTag)
}
