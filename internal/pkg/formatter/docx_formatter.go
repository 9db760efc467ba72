package formatter

import (
	"bytes"
	"strings"

	"github.com/futig/askdocs/internal/entity"
	"github.com/unidoc/unioffice/document"
)

const (
	docxContentType   = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	docxFileExtension = ".docx"
)

type DOCXFormatter struct{}

func NewDOCXFormatter() *DOCXFormatter {
	return &DOCXFormatter{}
}

func (df *DOCXFormatter) Format(doc entity.AnswerDocument) ([]byte, error) {
	d := document.New()
	defer d.Close()

	addStyled(d, "Title", doc.Question)

	addStyled(d, "Heading1", answerHeading)
	addBody(d, doc.Answer)

	if doc.Reasoning != nil && *doc.Reasoning != "" {
		addStyled(d, "Heading1", reasoningHeading)
		addBody(d, *doc.Reasoning)
	}

	var buf bytes.Buffer
	if err := d.Save(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func addStyled(d *document.Document, style, text string) {
	par := d.AddParagraph()
	par.SetStyle(style)
	par.AddRun().AddText(text)
}

func addBody(d *document.Document, body string) {
	for _, line := range strings.Split(body, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if level, text := headingLevel(line); level > 0 {
			style := "Heading2"
			if level > 2 {
				style = "Heading3"
			}
			addStyled(d, style, stripMarkdown(text))
			continue
		}
		d.AddParagraph().AddRun().AddText(stripMarkdown(line))
	}
}

func (df *DOCXFormatter) ContentType() string {
	return docxContentType
}

func (df *DOCXFormatter) FileExtension() string {
	return docxFileExtension
}
