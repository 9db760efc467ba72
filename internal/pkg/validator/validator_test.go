package validator

import (
	"strings"
	"testing"

	"github.com/futig/askdocs/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateQuery(t *testing.T) {
	v := NewValidator(10)

	assert.ErrorIs(t, v.ValidateQuery(nil), entity.ErrMissingField)
	assert.ErrorIs(t, v.ValidateQuery(&entity.QueryRequest{Question: "   "}), entity.ErrMissingField)
	assert.ErrorIs(t, v.ValidateQuery(&entity.QueryRequest{Question: strings.Repeat("a", 11)}), entity.ErrInvalidParameter)
	assert.NoError(t, v.ValidateQuery(&entity.QueryRequest{Question: "ok?"}))
}

func TestParseInspectLimit(t *testing.T) {
	limit, err := ParseInspectLimit("")
	require.NoError(t, err)
	assert.Equal(t, DefaultInspectLimit, limit)

	limit, err = ParseInspectLimit("100")
	require.NoError(t, err)
	assert.Equal(t, 100, limit)

	for _, raw := range []string{"0", "101", "abc", "-3"} {
		_, err := ParseInspectLimit(raw)
		assert.ErrorIs(t, err, entity.ErrInvalidParameter, raw)
	}
}

func TestParseExportFormat(t *testing.T) {
	f, err := ParseExportFormat("")
	require.NoError(t, err)
	assert.Equal(t, entity.ResultFormatMarkdown, f)

	f, err = ParseExportFormat("PDF")
	require.NoError(t, err)
	assert.Equal(t, entity.ResultFormatPDF, f)

	_, err = ParseExportFormat("xlsx")
	assert.ErrorIs(t, err, entity.ErrInvalidFormat)
}
