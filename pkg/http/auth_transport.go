package http

import "net/http"

type headerTransport struct {
	header    string
	value     string
	transport http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	reqCopy := req.Clone(req.Context())

	if t.value != "" {
		reqCopy.Header.Set(t.header, t.value)
	}

	return t.transport.RoundTrip(reqCopy)
}

// WithAuthToken sets a bearer Authorization header when token is non-empty.
func WithAuthToken(token string) HttpOpts {
	if token == "" {
		return WithHeaderValue("Authorization", "")
	}
	return WithHeaderValue("Authorization", "Bearer "+token)
}

// WithHeaderValue sets a static header on every request, skipped when value is empty.
func WithHeaderValue(header, value string) HttpOpts {
	return WithTransport(func(rt http.RoundTripper) http.RoundTripper {
		return &headerTransport{
			header:    header,
			value:     value,
			transport: rt,
		}
	})
}
