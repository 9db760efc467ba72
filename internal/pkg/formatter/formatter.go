package formatter

import (
	"fmt"
	"strings"

	"github.com/futig/askdocs/internal/entity"
)

const (
	answerHeading    = "Answer"
	reasoningHeading = "Reasoning"
)

type Formatter interface {
	Format(doc entity.AnswerDocument) ([]byte, error)
	ContentType() string
	FileExtension() string
}

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Create(format entity.ResultFormat) (Formatter, error) {
	switch format {
	case entity.ResultFormatMarkdown:
		return NewMarkdownFormatter(), nil
	case entity.ResultFormatDOCX:
		return NewDOCXFormatter(), nil
	case entity.ResultFormatPDF:
		return NewPDFFormatter(), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// stripMarkdown removes the inline markers that render literally in pdf and docx.
func stripMarkdown(line string) string {
	return strings.NewReplacer("**", "", "`", "").Replace(line)
}

// headingLevel returns the level of a "#" heading line and its text, or 0.
func headingLevel(line string) (int, string) {
	trimmed := strings.TrimLeft(line, "#")
	level := len(line) - len(trimmed)
	if level == 0 || level > 6 || !strings.HasPrefix(trimmed, " ") {
		return 0, line
	}
	return level, strings.TrimSpace(trimmed)
}
