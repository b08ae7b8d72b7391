// Package rpcproxy relays intercepted RPC calls to the operator's RPC endpoint.
package rpcproxy

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/hunterwarburton/walletproxy/internal/logger"
)

// Hop-by-hop headers are meaningful only for a single connection and are
// not relayed (RFC 7230 section 6.1).
var hopHeaders = []string{
	"Connection",
	"Proxy-Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// Response is the upstream reply relayed back to the wallet.
type Response struct {
	StatusCode int
	// ContentType is empty if the upstream did not send one.
	ContentType string
	Body        []byte
}

// Forwarder sends every request to one configured RPC endpoint.
type Forwarder struct {
	endpoint *url.URL
	client   *http.Client
}

// Option configures a Forwarder.
type Option func(*Forwarder)

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Forwarder) {
		f.client = client
	}
}

// New creates a Forwarder for endpoint, which must be an absolute URL.
func New(endpoint string, opts ...Option) (*Forwarder, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid RPC endpoint %q: %w", endpoint, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("invalid RPC endpoint %q: must be an absolute URL", endpoint)
	}

	f := &Forwarder{
		endpoint: u,
		client:   &http.Client{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Endpoint returns the configured upstream URL.
func (f *Forwarder) Endpoint() string {
	return f.endpoint.String()
}

// Forward relays req's method, headers and body to the configured endpoint
// URL exactly as given, whatever URL req was addressed to. It returns
// the upstream status, body and Content-Type. There is no retry; a transport
// failure is returned as an error.
func (f *Forwarder) Forward(ctx context.Context, req *http.Request) (*Response, error) {
	var body []byte
	if req.Body != nil {
		b, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
		body = b
	}

	// The wallet's own URL, query included, is never sent upstream.
	out, err := http.NewRequestWithContext(ctx, req.Method, f.endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create upstream request: %w", err)
	}
	out.Header = req.Header.Clone()
	if out.Header == nil {
		out.Header = make(http.Header)
	}
	for _, h := range hopHeaders {
		out.Header.Del(h)
	}
	// Set by net/http from the request itself.
	out.Header.Del("Host")
	out.Header.Del("Content-Length")
	// Only Content-Type is relayed back, so let the transport negotiate and
	// undo compression itself.
	out.Header.Del("Accept-Encoding")

	logger.Debug("Forwarding %s %s to %s (%d bytes)", req.Method, req.URL.Redacted(), f.endpoint.Redacted(), len(body))
	resp, err := f.client.Do(out)
	if err != nil {
		return nil, fmt.Errorf("upstream RPC request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read upstream RPC response: %w", err)
	}

	return &Response{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        respBody,
	}, nil
}
