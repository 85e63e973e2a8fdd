package llm

import (
	"fmt"
	"strings"

	"github.com/rohankatakam/gitintel/internal/classify"
)

// maxMessageRunes bounds what is sent upstream; subjects and short bodies
// carry the signal.
const maxMessageRunes = 2000

func systemPrompt(jsonMode bool) string {
	labels := strings.Join(classify.Labels(), ", ")
	if jsonMode {
		return fmt.Sprintf("You classify git commit messages. Choose exactly one label from: %s. "+
			"Respond with a JSON object {\"label\": <label>, \"confidence\": <number between 0 and 1>}.", labels)
	}
	return fmt.Sprintf("You classify git commit messages. Choose exactly one label from: %s. "+
		"Respond with the label only, in lowercase, with no punctuation.", labels)
}

func userPrompt(message string) string {
	r := []rune(strings.TrimSpace(message))
	if len(r) > maxMessageRunes {
		r = r[:maxMessageRunes]
	}
	return "Commit message:\n" + string(r)
}

// normalizeLabel trims a completion down to a bare label
func normalizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Trim(s, "\"'`.:;, \n\t")
	if i := strings.IndexAny(s, " \n\t"); i >= 0 {
		s = s[:i]
	}
	return s
}
