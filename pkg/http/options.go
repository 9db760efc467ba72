package http

import "time"

// HttpOpts tunes the client a Connector is built with.
type HttpOpts func(*clientConfig)

// WithConnClientTimeout bounds dialing a new connection.
func WithConnClientTimeout(timeout time.Duration) HttpOpts {
	return func(c *clientConfig) {
		if timeout > 0 {
			c.dialTimeout = timeout
		}
	}
}

// WithRequestTimeout bounds a whole request. Zero disables the client-level
// limit so only the request context applies.
func WithRequestTimeout(timeout time.Duration) HttpOpts {
	return func(c *clientConfig) {
		c.requestTimeout = timeout
	}
}

func WithClientKeepAlive(keepAlive time.Duration) HttpOpts {
	return func(c *clientConfig) {
		if keepAlive > 0 {
			c.keepAlive = keepAlive
		}
	}
}

func WithTLSHandshakeTimeout(timeout time.Duration) HttpOpts {
	return func(c *clientConfig) {
		if timeout > 0 {
			c.tlsHandshakeTimeout = timeout
		}
	}
}

// WithResponseHeaderTimeout bounds the wait for response headers. Zero waits
// as long as the request allows, which slow generation servers need.
func WithResponseHeaderTimeout(timeout time.Duration) HttpOpts {
	return func(c *clientConfig) {
		c.responseHeaderTimeout = timeout
	}
}

func WithIdleConnTimeout(timeout time.Duration) HttpOpts {
	return func(c *clientConfig) {
		if timeout > 0 {
			c.idleConnTimeout = timeout
		}
	}
}

// WithConnPool sizes the idle connection pool; non-positive values keep the defaults.
func WithConnPool(maxIdle, maxIdlePerHost int) HttpOpts {
	return func(c *clientConfig) {
		if maxIdle > 0 {
			c.maxIdleConns = maxIdle
		}
		if maxIdlePerHost > 0 {
			c.maxIdleConnsPerHost = maxIdlePerHost
		}
	}
}

// WithTransport wraps the round tripper; wrappers apply in the order given.
func WithTransport(transport TransportFunc) HttpOpts {
	return func(c *clientConfig) {
		c.wrappers = append(c.wrappers, transport)
	}
}

func WithInsecureSkipVerify(skip bool) HttpOpts {
	return func(c *clientConfig) {
		c.insecureSkipVerify = skip
	}
}
