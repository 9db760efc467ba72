package entity

// ResultFormat is a downloadable answer format.
type ResultFormat string

const (
	ResultFormatMarkdown ResultFormat = "markdown"
	ResultFormatDOCX     ResultFormat = "docx"
	ResultFormatPDF      ResultFormat = "pdf"
)

// AnswerDocument is an answered question ready for export.
type AnswerDocument struct {
	Question  string
	Answer    string
	Reasoning *string
}
