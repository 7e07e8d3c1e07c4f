package engine

import "strings"

// promptLimit is the token budget left for the transcript once a quarter of
// the session budget is reserved for the reply.
func promptLimit(budget int) int {
	return budget - budget/4
}

// trimTurns drops turns oldest-first until the retained turns plus prompt
// fit in limit tokens as measured by count. The newest prompt is never
// dropped, even if it alone exceeds the limit.
func trimTurns(turns []string, prompt string, limit int, count func(string) int) (kept []string, dropped int) {
	for len(turns) > 0 && count(strings.Join(turns, "")+prompt) > limit {
		turns = turns[1:]
		dropped++
	}
	return turns, dropped
}

// turnRecord is what a finished turn contributes to the transcript.
func turnRecord(prompt, reply string) string {
	return prompt + reply + "\n"
}

// cutAtStop drops everything from the first stop sequence onwards.
func cutAtStop(s string, stops []string) string {
	for _, stop := range stops {
		if stop == "" {
			continue
		}
		if i := strings.Index(s, stop); i >= 0 {
			s = s[:i]
		}
	}
	return s
}

// engineSeed folds a request seed into the non-negative 32-bit range
// llama.cpp accepts. Seeds already in range pass through unchanged.
func engineSeed(seed int64) int {
	return int(uint32(seed) & 0x7fffffff)
}
