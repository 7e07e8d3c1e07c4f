package chat

import "strings"

// StopFilter decides, token by token, which part of the raw generation is
// assistant content. It drops a leading echo of the assistant tag and stops
// at the first occurrence of the stop marker. Text that could still turn out
// to be the start of the marker is held back until the next token settles it,
// so no fragment of the marker is ever emitted.
//
// A StopFilter does no I/O and is not safe for concurrent use.
type StopFilter struct {
	stop     string
	lead     string
	leadDone bool
	pending  string
	halted   bool
}

// NewStopFilter returns a filter that halts at stop and strips lead when the
// reply starts with it. An empty lead disables stripping.
func NewStopFilter(stop, lead string) *StopFilter {
	return &StopFilter{stop: stop, lead: lead, leadDone: lead == ""}
}

// Push feeds one token. It returns the text that is safe to print now and
// whether generation should stop. After a stop every Push returns "", true.
func (f *StopFilter) Push(tok string) (string, bool) {
	if f.halted {
		return "", true
	}
	buf := f.pending + tok
	f.pending = ""

	if !f.leadDone {
		switch {
		case buf == "":
			return "", false
		case strings.HasPrefix(f.lead, buf):
			if len(buf) < len(f.lead) {
				f.pending = buf
				return "", false
			}
			f.leadDone = true
			return "", false
		case strings.HasPrefix(buf, f.lead):
			buf = buf[len(f.lead):]
		}
		f.leadDone = true
	}

	if f.stop == "" {
		return buf, false
	}
	if i := strings.Index(buf, f.stop); i >= 0 {
		f.halted = true
		return buf[:i], true
	}
	keep := partialSuffix(buf, f.stop)
	f.pending = buf[len(buf)-keep:]
	return buf[:len(buf)-keep], false
}

// Flush returns and clears the held-back text. Callers at the end of a turn
// decide whether to print or drop it.
func (f *StopFilter) Flush() string {
	p := f.pending
	f.pending = ""
	return p
}

// Halted reports whether the stop marker has been seen.
func (f *StopFilter) Halted() bool { return f.halted }

// partialSuffix returns the length of the longest suffix of s that is a
// proper prefix of marker.
func partialSuffix(s, marker string) int {
	n := min(len(s), len(marker)-1)
	for k := n; k > 0; k-- {
		if strings.HasSuffix(s, marker[:k]) {
			return k
		}
	}
	return 0
}
