// Package chunk splits one long answer into short, sequentially-delivered
// message units.
package chunk

import "strings"

// SplitDelimited splits raw on delim, trims each segment, drops empty ones
// and truncates to at most max segments, preserving order. A max of zero or
// less means no cap.
func SplitDelimited(raw, delim string, max int) []string {
	parts := strings.Split(raw, delim)
	segments := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		segments = append(segments, p)
	}
	if max > 0 && len(segments) > max {
		segments = segments[:max]
	}
	return segments
}

// SplitLength splits msg into chunks of at most maxLen characters, breaking
// on word boundaries where possible and hard-splitting words longer than
// maxLen. Used for transports with per-message length limits.
func SplitLength(msg string, maxLen int) []string {
	if maxLen <= 0 || len(msg) <= maxLen {
		return []string{msg}
	}

	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}

	for _, word := range strings.Fields(msg) {
		// hard-split words that cannot fit on their own line
		for len(word) > maxLen {
			flush()
			chunks = append(chunks, word[:maxLen])
			word = word[maxLen:]
		}
		if word == "" {
			continue
		}

		needed := len(word)
		if current.Len() > 0 {
			needed++ // joining space
		}
		if current.Len()+needed > maxLen {
			flush()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(word)
	}
	flush()

	if len(chunks) == 0 {
		return []string{""}
	}
	return chunks
}
