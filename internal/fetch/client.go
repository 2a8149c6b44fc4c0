package fetch

import (
	"net/http"
	"time"
)

// ClientOptions configures the HTTP clients handed to workers.
type ClientOptions struct {
	// Timeout caps each request end to end.
	// Default: 30s
	Timeout time.Duration

	// MaxIdleConnsPerHost sets the keep-alive pool size per host.
	// Default: 100
	MaxIdleConnsPerHost int
}

// DefaultClientOptions returns options with sensible defaults.
func DefaultClientOptions() ClientOptions {
	return ClientOptions{
		Timeout:             30 * time.Second,
		MaxIdleConnsPerHost: 100,
	}
}

// ClientFactory produces an HTTP client. The pool calls it once per worker
// at spawn time so each worker reuses its own connections for the whole
// run; no ambient or global client state is involved.
type ClientFactory func() *http.Client

// NewClientFactory builds a factory from opts. Zero fields fall back to
// the defaults.
func NewClientFactory(opts ClientOptions) ClientFactory {
	def := DefaultClientOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.MaxIdleConnsPerHost <= 0 {
		opts.MaxIdleConnsPerHost = def.MaxIdleConnsPerHost
	}

	return func() *http.Client {
		transport := &http.Transport{
			MaxIdleConnsPerHost: opts.MaxIdleConnsPerHost,
			MaxIdleConns:        opts.MaxIdleConnsPerHost * 2,
			IdleConnTimeout:     90 * time.Second,
		}
		return &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
		}
	}
}
