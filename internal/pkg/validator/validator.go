package validator

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/futig/askdocs/internal/entity"
)

const (
	DefaultInspectLimit = 20
	MaxInspectLimit     = 100
)

// Validator validates incoming queries
type Validator struct {
	maxQuestionLength int
}

func NewValidator(maxQuestionLength int) *Validator {
	return &Validator{maxQuestionLength: maxQuestionLength}
}

func (v *Validator) ValidateQuery(req *entity.QueryRequest) error {
	if req == nil || strings.TrimSpace(req.Question) == "" {
		return fmt.Errorf("%w: question", entity.ErrMissingField)
	}

	if v.maxQuestionLength > 0 && utf8.RuneCountInString(req.Question) > v.maxQuestionLength {
		return fmt.Errorf("%w: question is longer than %d characters", entity.ErrInvalidParameter, v.maxQuestionLength)
	}

	return nil
}

// ParseInspectLimit reads the limit query parameter; empty means the default.
func ParseInspectLimit(raw string) (int, error) {
	if raw == "" {
		return DefaultInspectLimit, nil
	}

	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: limit must be an integer", entity.ErrInvalidParameter)
	}
	if limit < 1 || limit > MaxInspectLimit {
		return 0, fmt.Errorf("%w: limit must be between 1 and %d", entity.ErrInvalidParameter, MaxInspectLimit)
	}

	return limit, nil
}

// ParseExportFormat maps the format query parameter onto a result format.
func ParseExportFormat(raw string) (entity.ResultFormat, error) {
	switch strings.ToLower(raw) {
	case "", "markdown", "md":
		return entity.ResultFormatMarkdown, nil
	case "pdf":
		return entity.ResultFormatPDF, nil
	case "docx":
		return entity.ResultFormatDOCX, nil
	default:
		return "", fmt.Errorf("%w: format must be markdown, pdf or docx", entity.ErrInvalidFormat)
	}
}
