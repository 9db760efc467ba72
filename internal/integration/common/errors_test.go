package common

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"testing"

	"github.com/futig/askdocs/internal/entity"
	pkgHTTP "github.com/futig/askdocs/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyError(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, ClassifyError("llm", nil))
	})

	t.Run("timeout", func(t *testing.T) {
		err := ClassifyError("llm", &pkgHTTP.NetworkError{Err: context.DeadlineExceeded})
		assert.ErrorIs(t, err, entity.ErrUpstreamTimeout)
	})

	t.Run("connection refused", func(t *testing.T) {
		err := ClassifyError("llm", &pkgHTTP.NetworkError{Err: fmt.Errorf("dial tcp: %w", syscall.ECONNREFUSED)})
		assert.ErrorIs(t, err, entity.ErrUpstreamUnreachable)
	})

	t.Run("bad status", func(t *testing.T) {
		err := ClassifyError("llm", &pkgHTTP.HTTPError{StatusCode: 500, Message: "boom"})

		var badStatus *entity.BadStatusError
		require.ErrorAs(t, err, &badStatus)
		assert.Equal(t, 500, badStatus.StatusCode)
		assert.Equal(t, "llm", badStatus.Service)
	})

	t.Run("decode", func(t *testing.T) {
		err := ClassifyError("llm", &pkgHTTP.DecodeError{Err: errors.New("unexpected EOF")})
		assert.ErrorIs(t, err, entity.ErrMalformedResponse)
	})

	t.Run("unknown passes through", func(t *testing.T) {
		orig := errors.New("something else")
		assert.Same(t, orig, ClassifyError("llm", orig))
	})
}
