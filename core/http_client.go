package core

import (
	"net"
	"net/http"
	"time"
)

// NewHTTPClient returns an HTTP client configured for provider API calls.
//
// The client itself carries no request timeout: per-attempt deadlines are
// enforced by the retry policy through context.WithTimeout, which actively
// cancels the in-flight request when it expires. The transport only bounds
// connection setup so a dead host cannot stall indefinitely.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 0, // response pacing is governed by the attempt context
			MaxIdleConns:          10,
			IdleConnTimeout:       90 * time.Second,
		},
	}
}
