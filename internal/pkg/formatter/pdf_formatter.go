package formatter

import (
	"bytes"
	"os"
	"strings"

	"github.com/futig/askdocs/internal/entity"
	"github.com/jung-kurt/gofpdf"
)

const (
	pdfContentType   = "application/pdf"
	pdfFileExtension = ".pdf"

	// pdfFontName is the gofpdf family registered for the UTF-8 font.
	pdfFontName = "DejaVuSans"

	// Font locations next to the binary and in the source tree.
	pdfFontRuntimePath = "ttf/DejaVuSans.ttf"
	pdfFontSourcePath  = "internal/pkg/formatter/ttf/DejaVuSans.ttf"
)

type PDFFormatter struct{}

func NewPDFFormatter() *PDFFormatter {
	return &PDFFormatter{}
}

func resolveFontPath() string {
	for _, p := range []string{pdfFontRuntimePath, pdfFontSourcePath} {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func (pf *PDFFormatter) Format(doc entity.AnswerDocument) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	// Core fonts are latin-1 only; the bundled font is used when present.
	fontName := "Arial"
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	if fontPath := resolveFontPath(); fontPath != "" {
		pdf.AddUTF8Font(pdfFontName, "", fontPath)
		pdf.AddUTF8Font(pdfFontName, "B", fontPath)
		fontName = pdfFontName
		tr = func(s string) string { return s }
	}

	pdf.SetFont(fontName, "B", 16)
	pdf.MultiCell(0, 8, tr(doc.Question), "", "", false)
	pdf.Ln(4)

	writeSection(pdf, fontName, tr, answerHeading, doc.Answer)
	if doc.Reasoning != nil && *doc.Reasoning != "" {
		writeSection(pdf, fontName, tr, reasoningHeading, *doc.Reasoning)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeSection(pdf *gofpdf.Fpdf, fontName string, tr func(string) string, heading, body string) {
	pdf.SetFont(fontName, "B", 13)
	pdf.Cell(0, 8, tr(heading))
	pdf.Ln(10)

	for _, line := range strings.Split(body, "\n") {
		if level, text := headingLevel(line); level > 0 {
			pdf.SetFont(fontName, "B", 12)
			pdf.MultiCell(0, 7, tr(stripMarkdown(text)), "", "", false)
			continue
		}
		pdf.SetFont(fontName, "", 11)
		pdf.MultiCell(0, 6, tr(stripMarkdown(line)), "", "", false)
	}
	pdf.Ln(4)
}

func (pf *PDFFormatter) ContentType() string {
	return pdfContentType
}

func (pf *PDFFormatter) FileExtension() string {
	return pdfFileExtension
}
