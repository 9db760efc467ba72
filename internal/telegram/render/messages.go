package render

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/futig/askdocs/internal/entity"
)

// MaxMessageLength is Telegram's limit for a single text message.
const MaxMessageLength = 4096

const (
	MsgWelcome = `👋 Hi! Ask me anything about the indexed documentation and I will answer from it.

Just send your question as a message.`

	MsgHelp = `🤖 Commands:

/start - Show the welcome message
/help - Show this help

Send any other text and I will treat it as a question. Repeated or similar questions are answered from cache.`

	MsgUnknownCommand = "❌ Unknown command. Use /help"
	MsgUnsupported    = "I can only answer text questions."
	ErrGeneric        = "❌ Something went wrong. Please try again."
	MsgRateLimited    = "⚠️ Too many questions. Please wait a little before the next one."
)

// Response renders a query envelope as chat text.
func Response(resp *entity.QueryResponse) string {
	if resp.Failed() {
		var b strings.Builder
		fmt.Fprintf(&b, "❌ %s", resp.Error)
		if resp.Message != "" {
			fmt.Fprintf(&b, "\n\n%s", resp.Message)
		}
		return b.String()
	}

	if !resp.CacheHit {
		return resp.Answer
	}

	note := "⚡ Answered from cache"
	switch resp.CacheType {
	case entity.CacheTypeExact:
		note += " (exact match)"
	case entity.CacheTypeSemantic:
		if resp.MatchedQuestion != "" {
			note += fmt.Sprintf(" (similar to: %q)", resp.MatchedQuestion)
		}
	}
	return resp.Answer + "\n\n" + note
}

// Split cuts text into parts of at most limit runes, preferring line breaks.
func Split(text string, limit int) []string {
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var parts []string
	runes := []rune(text)
	for len(runes) > limit {
		cut := limit
		for i := limit; i > limit/2; i-- {
			if runes[i-1] == '\n' {
				cut = i
				break
			}
		}
		parts = append(parts, strings.TrimRight(string(runes[:cut]), "\n"))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		parts = append(parts, string(runes))
	}
	return parts
}
