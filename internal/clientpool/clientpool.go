// Package clientpool provides the single outbound HTTP client every
// provider adapter shares: one set of timeouts, one local bind address, one
// User-Agent, so no individual adapter can accidentally misconfigure the
// network surface the process presents to upstreams.
package clientpool

import (
	"context"
	"net"
	"net/http"
	"time"
)

const (
	userAgent       = "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0"
	acceptLanguage  = "en-US,en;q=0.5"
	requestTimeout  = 10 * time.Second
	localBindAddr   = "0.0.0.0:0"
)

var shared = newClient()

// Client returns the process-wide singleton HTTP client.
func Client() *http.Client {
	return shared
}

func newClient() *http.Client {
	dialer := &net.Dialer{
		Timeout:   requestTimeout,
		LocalAddr: mustResolveTCPAddr(localBindAddr),
	}
	transport := &http.Transport{
		DialContext: dialer.DialContext,
	}
	return &http.Client{
		Transport: &headerInjectingTransport{base: transport},
		Timeout:   requestTimeout,
	}
}

func mustResolveTCPAddr(addr string) *net.TCPAddr {
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		// 0.0.0.0:0 always resolves; a failure here means the runtime's
		// network stack is broken in a way no request will survive anyway.
		panic(err)
	}
	return tcpAddr
}

// headerInjectingTransport stamps every outbound request with the shared
// User-Agent and Accept-Language unless the caller already set one.
type headerInjectingTransport struct {
	base http.RoundTripper
}

func (t *headerInjectingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", userAgent)
	}
	if req.Header.Get("Accept-Language") == "" {
		req.Header.Set("Accept-Language", acceptLanguage)
	}
	return t.base.RoundTrip(req)
}

// NewRequest builds an outbound request with the given method and the
// background context, with no body;
// callers replace the context via WithContext for per-request cancellation.
func NewRequest(method, url string) (*http.Request, error) {
	return http.NewRequestWithContext(context.Background(), method, url, nil)
}
