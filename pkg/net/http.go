package net

import (
	"net/http"
	"time"
)

const (
	maxIdleConns       = 10
	idleTimeoutSeconds = 60
	clientAgentDefault = "scoring/v0.0.1-default"
)

// GetHTTPClient returns a client for calls to the scoring service.
// The timeout covers the whole exchange; zero disables it.
func GetHTTPClient(timeout time.Duration, agent string) *http.Client {
	if agent == "" {
		agent = clientAgentDefault
	}

	reqTransport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          maxIdleConns,
		IdleConnTimeout:       idleTimeoutSeconds * time.Second,
		DisableCompression:    false,
		DisableKeepAlives:     false,
		ResponseHeaderTimeout: timeout,
	}

	return &http.Client{
		Timeout: timeout,
		Transport: &agentTransport{
			agent: agent,
			next:  reqTransport,
		},
	}
}

type agentTransport struct {
	agent string
	next  http.RoundTripper
}

func (t *agentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", t.agent)
	}
	return t.next.RoundTrip(req)
}
