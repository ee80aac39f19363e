package orchestrator

import (
	"regexp"
	"strconv"

	"github.com/sweetpotato0/vedabot/message"
)

// citationPattern matches the canonical citation phrase the verification
// prompt instructs the model to emit.
var citationPattern = regexp.MustCompile(`(?i)As mentioned in ([^,]+), Chapter (\d+), Verse (\d+)`)

// ExtractCitations scans text for citation phrases and returns them in order
// of appearance. Duplicates are kept; a repeated verse was cited twice.
func ExtractCitations(text string) []message.Citation {
	matches := citationPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	citations := make([]message.Citation, 0, len(matches))
	for _, m := range matches {
		chapter, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		verse, err := strconv.Atoi(m[3])
		if err != nil {
			continue
		}
		citations = append(citations, message.NewCitation(m[1], chapter, verse))
	}
	return citations
}
