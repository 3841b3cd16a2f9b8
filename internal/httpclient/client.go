// Package httpclient provides the HTTP client factory used by the checker.
package httpclient

import (
	"net"
	"net/http"
	"time"

	"statuscheck/config"
)

// ClientConfig holds configuration options for creating HTTP clients
type ClientConfig struct {
	// Timeout bounds a whole request, including reading the body
	Timeout time.Duration

	// ResponseHeaderTimeout bounds the wait for response headers after the request is written
	ResponseHeaderTimeout time.Duration

	// DialTimeout is the maximum amount of time a dial will wait for a connect to complete
	DialTimeout time.Duration

	// TLSHandshakeTimeout specifies the maximum amount of time to wait for a TLS handshake
	TLSHandshakeTimeout time.Duration

	// MaxIdleConnsPerHost controls the idle (keep-alive) connections kept for the API host
	MaxIdleConnsPerHost int
}

// DefaultConfig returns a ClientConfig suited to a short sequential run against one host.
func DefaultConfig() ClientConfig {
	return ClientConfig{
		Timeout:               30 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		DialTimeout:           10 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConnsPerHost:   2,
	}
}

// FromConfig overlays the configured timeouts on DefaultConfig. Zero values keep the defaults.
func FromConfig(cfg config.HTTPConfig) ClientConfig {
	c := DefaultConfig()
	if cfg.Timeout > 0 {
		c.Timeout = cfg.Timeout
	}
	if cfg.ResponseHeaderTimeout > 0 {
		c.ResponseHeaderTimeout = cfg.ResponseHeaderTimeout
	}
	return c
}

// NewHTTPClient creates a new HTTP client with the provided configuration.
// If cfg is nil, DefaultConfig() is used.
//
// Compression is negotiated by the caller, so the transport never adds
// Accept-Encoding on its own and bodies arrive exactly as the server sent them.
func NewHTTPClient(cfg *ClientConfig) *http.Client {
	if cfg == nil {
		def := DefaultConfig()
		cfg = &def
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.DialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          cfg.MaxIdleConnsPerHost,
		MaxIdleConnsPerHost:   cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   cfg.TLSHandshakeTimeout,
		ResponseHeaderTimeout: cfg.ResponseHeaderTimeout,
		DisableCompression:    true,
		ForceAttemptHTTP2:     true,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   cfg.Timeout,
	}
}
