package generation

import (
	"fmt"

	"github.com/futig/askdocs/internal/entity"
)

const (
	reasoningSystemPrompt = "You are an ArcGIS Enterprise expert. Think through the problem step by step " +
		"and provide a detailed technical answer based on the context."

	formattingSystemPrompt = "You are a technical documentation specialist. Take the provided response and " +
		"create a clean, well-formatted markdown summary. Use headings, bullet points, code blocks, and " +
		"clear structure. Be concise but comprehensive."
)

func reasoningPrompt(q string, chunks []entity.Chunk) string {
	return fmt.Sprintf("Context:\n%s\n\nQuestion: %s", entity.JoinContents(chunks), q)
}

func formattingPrompt(answer string) string {
	return "Please format this ArcGIS Enterprise response into clean markdown:\n\n" + answer
}
