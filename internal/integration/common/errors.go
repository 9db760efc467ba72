package common

import (
	"errors"
	"fmt"

	"github.com/futig/askdocs/internal/entity"
	pkgHTTP "github.com/futig/askdocs/pkg/http"
)

// ClassifyError maps transport errors from pkg/http onto domain errors.
// Unknown errors are returned unchanged.
func ClassifyError(service string, err error) error {
	if err == nil {
		return nil
	}

	var netErr *pkgHTTP.NetworkError
	if errors.As(err, &netErr) {
		switch {
		case netErr.Timeout():
			return fmt.Errorf("%s: %w: %v", service, entity.ErrUpstreamTimeout, err)
		case netErr.Refused():
			return fmt.Errorf("%s: %w: %v", service, entity.ErrUpstreamUnreachable, err)
		default:
			return fmt.Errorf("%s: %w", service, err)
		}
	}

	var httpErr *pkgHTTP.HTTPError
	if errors.As(err, &httpErr) {
		return &entity.BadStatusError{
			Service:    service,
			StatusCode: httpErr.StatusCode,
			Body:       httpErr.Message,
		}
	}

	var decodeErr *pkgHTTP.DecodeError
	if errors.As(err, &decodeErr) {
		return fmt.Errorf("%s: %w: %v", service, entity.ErrMalformedResponse, err)
	}

	return err
}
