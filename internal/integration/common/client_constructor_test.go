package common

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/futig/askdocs/internal/config"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestNewBaseConnector_InsecureSkipVerify(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	strict := NewBaseConnector(config.HTTPClientConfig{Url: srv.URL}, zap.NewNop())
	err := strict.DoRequest(context.Background(), http.MethodGet, "/", nil, nil)
	assert.Error(t, err, "self-signed certificate must be rejected by default")

	insecure := NewBaseConnector(config.HTTPClientConfig{Url: srv.URL, InsecureSkipVerify: true}, zap.NewNop())
	err = insecure.DoRequest(context.Background(), http.MethodGet, "/", nil, nil)
	assert.NoError(t, err)
}
