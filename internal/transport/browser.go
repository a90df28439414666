package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"

	utls "github.com/refraction-networking/utls"
	"golang.org/x/net/http2"
)

// Go's standard TLS client has a distinctive fingerprint that triggers
// aggressive rate limiting on some CDN-fronted merchants. When Config
// enables BrowserTLS, requests present Chrome's TLS fingerprint instead:
//
//  1. uTLS with HelloChrome_Auto for the ClientHello shape
//  2. ALPN negotiates naturally (h2, http/1.1)
//  3. Go's http2.Transport handles HTTP/2 framing when negotiated

// NewBrowserTransport creates an http.RoundTripper that presents Chrome's
// TLS fingerprint to the merchant. Supports HTTP/2 and HTTP/1.1 based on
// ALPN negotiation.
func NewBrowserTransport(timeout time.Duration) http.RoundTripper {
	dialer := &net.Dialer{Timeout: timeout}

	h2Transport := &http2.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
			return dialBrowserTLS(ctx, dialer, network, addr)
		},
	}

	h1Transport := &http.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialBrowserTLS(ctx, dialer, network, addr)
		},
		ForceAttemptHTTP2: false,
	}

	return &browserTransport{
		h2: h2Transport,
		h1: h1Transport,
	}
}

// browserTransport wraps HTTP/2 and HTTP/1.1 transports with the Chrome
// TLS fingerprint.
type browserTransport struct {
	h2 *http2.Transport
	h1 *http.Transport
}

// RoundTrip implements http.RoundTripper.
// Tries HTTP/2 first, falls back to HTTP/1.1 for servers without h2.
func (t *browserTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.h2.RoundTrip(req)
	if err == nil {
		return resp, nil
	}
	return t.h1.RoundTrip(req)
}

// dialBrowserTLS establishes a TLS connection with Chrome's fingerprint.
func dialBrowserTLS(ctx context.Context, dialer *net.Dialer, network, addr string) (net.Conn, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	tlsConfig := &utls.Config{
		ServerName: host,
	}
	tlsConn := utls.UClient(conn, tlsConfig, utls.HelloChrome_Auto)

	if err := tlsConn.Handshake(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("tls handshake: %w", err)
	}

	return tlsConn, nil
}
