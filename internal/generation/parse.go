package generation

import "strings"

const (
	thinkOpen  = "<think>"
	thinkClose = "</think>"
)

var markdownMarkers = []string{"##", "**", "-", "*", "`", "1."}

// parsedOutput is the reasoning model's output split around its think span.
type parsedOutput struct {
	reasoning       string
	finalAnswer     string
	needsFormatting bool
}

// parseReasoningOutput splits raw at the first think span. Without one the whole
// output is the answer and always goes through formatting.
func parseReasoningOutput(raw string) parsedOutput {
	start := strings.Index(raw, thinkOpen)
	end := strings.Index(raw, thinkClose)

	if start < 0 || end < 0 || end < start {
		return parsedOutput{
			finalAnswer:     raw,
			needsFormatting: true,
		}
	}

	final := strings.TrimSpace(raw[end+len(thinkClose):])
	return parsedOutput{
		reasoning:       strings.TrimSpace(raw[start+len(thinkOpen) : end]),
		finalAnswer:     final,
		needsFormatting: !hasMarkdown(final),
	}
}

func hasMarkdown(s string) bool {
	for _, m := range markdownMarkers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
