package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Executor composes a Transport with a RetryPolicy. Each call is
// independent; the executor holds no per-request state and is safe for
// concurrent use.
type Executor struct {
	transport Transport
	policy    RetryPolicy
	logger    *slog.Logger
}

// NewExecutor creates an executor. A nil policy falls back to
// DefaultRetryPolicy.
func NewExecutor(transport Transport, policy RetryPolicy, logger *slog.Logger) *Executor {
	if policy == nil {
		policy = DefaultRetryPolicy()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Executor{transport: transport, policy: policy, logger: logger}
}

// Do issues the request, retrying transient failures (network errors, 429,
// 5xx) per the retry policy. Fatal failures (other 4xx, credential
// rejection) return immediately. A Retry-After header longer than the
// scheduled delay takes precedence.
func (e *Executor) Do(ctx context.Context, req *Request) (*Response, error) {
	op := req.Method + " " + req.Path
	bo := e.policy()

	for attempt := 1; ; attempt++ {
		resp, err := e.transport.RoundTrip(ctx, req)

		var failure error
		switch {
		case err != nil:
			failure = err
		case resp.Status >= 200 && resp.Status < 300:
			return resp, nil
		default:
			failure = apiError(op, resp)
		}

		if !retryable(failure) {
			return nil, failure
		}

		delay := bo.NextBackOff()
		if delay == backoff.Stop {
			return nil, &Error{Kind: KindRetriesExhausted, Op: op, Err: failure}
		}
		if resp != nil {
			if ra := retryAfter(resp.Header.Get("Retry-After")); ra > delay {
				delay = ra
			}
		}

		e.logger.Warn("retrying request",
			"method", req.Method,
			"path", req.Path,
			"attempt", attempt,
			"delay", delay,
			"error", failure,
		)

		select {
		case <-ctx.Done():
			return nil, &Error{Kind: KindTransport, Op: op, Err: ctx.Err()}
		case <-time.After(delay):
		}
	}
}

// Execute runs the request and decodes the response body into T.
func Execute[T any](ctx context.Context, e *Executor, req *Request) (T, error) {
	var out T
	resp, err := e.Do(ctx, req)
	if err != nil {
		return out, err
	}
	if len(resp.Body) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return out, &Error{Kind: KindDecode, Op: req.Method + " " + req.Path, Err: err}
	}
	return out, nil
}

// retryable reports whether a failure is transient: transport errors, rate
// limiting and server errors qualify; everything else is deterministic.
func retryable(err error) bool {
	var ce *Error
	if !errors.As(err, &ce) {
		return false
	}
	if ce.Kind == KindTransport {
		return true
	}
	return ce.Kind == KindAPI && (ce.Status == http.StatusTooManyRequests || ce.Status >= 500)
}

// apiError maps a non-2xx response to a typed error, decoding the service's
// structured {"code": ..., "message": ...} body when present.
func apiError(op string, resp *Response) error {
	kind := KindAPI
	if resp.Status == http.StatusUnauthorized || resp.Status == http.StatusForbidden {
		kind = KindAuth
	}

	var detail struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	message := strings.TrimSpace(string(resp.Body))
	if err := json.Unmarshal(resp.Body, &detail); err == nil && detail.Message != "" {
		message = detail.Message
	}

	return &Error{Kind: kind, Op: op, Status: resp.Status, Message: message}
}

// retryAfter parses a Retry-After header as either seconds or an HTTP date.
// Returns 0 when absent or invalid; values are capped at one hour.
func retryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(header); err == nil && secs > 0 {
		return min(time.Duration(secs)*time.Second, time.Hour)
	}
	if t, err := http.ParseTime(header); err == nil {
		if delta := time.Until(t); delta > 0 {
			return min(delta, time.Hour)
		}
	}
	return 0
}
