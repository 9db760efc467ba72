package formatter

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/futig/askdocs/internal/entity"
)

const (
	markdownContentType   = "text/markdown; charset=utf-8"
	markdownFileExtension = ".md"
)

type MarkdownFormatter struct{}

func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

// Format keeps the answer markdown as is; reasoning is quoted below it.
func (mf *MarkdownFormatter) Format(doc entity.AnswerDocument) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %s\n\n%s\n", doc.Question, doc.Answer)

	if doc.Reasoning != nil && *doc.Reasoning != "" {
		fmt.Fprintf(&buf, "\n## %s\n\n", reasoningHeading)
		for _, line := range strings.Split(*doc.Reasoning, "\n") {
			fmt.Fprintf(&buf, "> %s\n", line)
		}
	}

	return buf.Bytes(), nil
}

func (mf *MarkdownFormatter) ContentType() string {
	return markdownContentType
}

func (mf *MarkdownFormatter) FileExtension() string {
	return markdownFileExtension
}
