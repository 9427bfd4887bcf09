package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Credentials holds opaque header pairs attached to every request. The
// client never interprets the values beyond carrying them.
type Credentials map[string]string

func (c Credentials) apply(h http.Header) {
	for name, value := range c {
		h.Set(name, value)
	}
}

// Request describes a single REST call: method, path, query and an optional
// JSON body. It is built by the caller and consumed once.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
}

// Response is the raw outcome of a single HTTP exchange.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Transport executes one HTTP request and returns the raw response. It holds
// no retry or pagination logic.
type Transport interface {
	RoundTrip(ctx context.Context, req *Request) (*Response, error)
}

// HTTPTransport is the production Transport, backed by net/http with
// connection pooling tuned for frequent small API calls.
type HTTPTransport struct {
	baseURL string
	creds   Credentials
	http    *http.Client
}

// NewHTTPTransport creates a transport rooted at baseURL. The timeout bounds
// each individual request; credentials are attached verbatim as headers.
func NewHTTPTransport(baseURL string, creds Credentials, timeout time.Duration) *HTTPTransport {
	return &HTTPTransport{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		creds:   creds,
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
				ForceAttemptHTTP2:   true,
			},
		},
	}
}

// RoundTrip implements Transport. I/O failures, including timeouts, are
// returned as KindTransport errors.
func (t *HTTPTransport) RoundTrip(ctx context.Context, req *Request) (*Response, error) {
	target := t.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, &Error{Kind: KindDecode, Op: "encode request", Err: err}
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Op: "build request", Err: err}
	}
	t.creds.apply(httpReq.Header)
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := t.http.Do(httpReq)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Op: req.Method + " " + req.Path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Op: req.Method + " " + req.Path, Err: err}
	}

	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: data}, nil
}
