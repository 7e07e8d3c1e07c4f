package chat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(f *StopFilter, toks []string) (out string, stopped bool) {
	var b strings.Builder
	for _, tok := range toks {
		emit, stop := f.Push(tok)
		b.WriteString(emit)
		if stop {
			return b.String(), true
		}
	}
	return b.String(), false
}

func TestStopFilter_Table(t *testing.T) {
	cases := []struct {
		name    string
		toks    []string
		want    string
		stopped bool
		held    string
	}{
		{"scenario", []string{"ASSISTANT:", " hi", " there", "USER:"}, " hi there", true, ""},
		{"no lead", []string{"Hi", "!"}, "Hi!", false, ""},
		{"lead split", []string{"ASSI", "STANT:", " ok"}, " ok", false, ""},
		{"lead glued", []string{"ASSISTANT: ok"}, " ok", false, ""},
		{"lead lookalike", []string{"ASSI", "GN"}, "ASSIGN", false, ""},
		{"stop split", []string{" a", " U", "SE", "R:", " b"}, " a ", true, ""},
		{"stop inside token", []string{" done.\nUSER: next"}, " done.\n", true, ""},
		{"false alarm", []string{" US", "A"}, " USA", false, ""},
		{"trailing partial", []string{" bye", " USE"}, " bye ", false, "USE"},
		{"only stop", []string{"USER:"}, "", true, ""},
		{"empty tokens", []string{"", " x", ""}, " x", false, ""},
		{"lone lead prefix", []string{"A"}, "", false, "A"},
		{"ends on marker start", []string{" The answer is: U"}, " The answer is: ", false, "U"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := NewStopFilter(HumanTag, AssistantTag)
			got, stopped := run(f, tc.toks)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.stopped, stopped)
			assert.Equal(t, tc.stopped, f.Halted())
			assert.Equal(t, tc.held, f.Flush())
		})
	}
}

func TestStopFilter_AfterHalt(t *testing.T) {
	f := NewStopFilter(HumanTag, AssistantTag)
	_, stop := f.Push("USER:")
	require.True(t, stop)
	emit, stop := f.Push(" more")
	assert.Empty(t, emit)
	assert.True(t, stop)
}

// expectedReply is what a turn should print for the raw text, however it is
// split into tokens, plus whether the stop marker was reached.
func expectedReply(text string) (string, bool) {
	s := strings.TrimPrefix(text, AssistantTag)
	if i := strings.Index(s, HumanTag); i >= 0 {
		return s[:i], true
	}
	return s, false
}

// splits returns every way to cut s into consecutive non-empty pieces.
func splits(s string) [][]string {
	n := len(s)
	if n == 0 {
		return [][]string{nil}
	}
	var out [][]string
	for mask := 0; mask < 1<<(n-1); mask++ {
		var toks []string
		start := 0
		for i := 1; i < n; i++ {
			if mask&(1<<(i-1)) != 0 {
				toks = append(toks, s[start:i])
				start = i
			}
		}
		out = append(out, append(toks, s[start:]))
	}
	return out
}

func TestStopFilter_AllSplits(t *testing.T) {
	texts := []string{
		"ASSISTANT:a USER:",
		"ok USER: no",
		"a USUSER:",
		"ASSIST USE",
		"USER:",
		"UUSER:b",
		"plain text",
	}
	for _, text := range texts {
		want, wantStop := expectedReply(text)
		for _, toks := range splits(text) {
			f := NewStopFilter(HumanTag, AssistantTag)
			got, stopped := run(f, toks)
			if wantStop {
				require.True(t, stopped, "%q split %q", text, toks)
				require.Equal(t, want, got, "%q split %q", text, toks)
				require.NotContains(t, got, HumanTag)
				continue
			}
			require.False(t, stopped, "%q split %q", text, toks)
			require.Equal(t, want, got+f.Flush(), "%q split %q", text, toks)
			// the printed part never ends in the start of the marker
			for k := 1; k < len(HumanTag); k++ {
				require.False(t, strings.HasSuffix(got, HumanTag[:k]), "%q split %q printed %q", text, toks, got)
			}
		}
	}
}

func TestStopFilter_NoLead(t *testing.T) {
	f := NewStopFilter("###", "")
	got, stopped := run(f, []string{"ASSISTANT:", " x #", "## y"})
	assert.Equal(t, "ASSISTANT: x ", got)
	assert.True(t, stopped)
}
