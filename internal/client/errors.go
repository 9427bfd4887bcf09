package client

import (
	"errors"
	"fmt"
)

// Done is returned by a Pager once all pages have been consumed.
// Check with errors.Is(err, client.Done).
var Done = errors.New("marketwire: no more items")

// Kind classifies a client failure. Every error produced by this package
// carries exactly one Kind; there is no catch-all variant.
type Kind int

const (
	// KindTransport covers network I/O failures and timeouts.
	KindTransport Kind = iota + 1
	// KindDecode covers response payloads that do not match the expected shape.
	KindDecode
	// KindAPI covers structured failures reported by the remote service.
	KindAPI
	// KindAuth covers credential rejection. Auth errors are fatal and never retried.
	KindAuth
	// KindRetriesExhausted is returned when the retry policy gives up.
	KindRetriesExhausted
	// KindOverflow is returned when a stream consumer falls behind the
	// backpressure bound.
	KindOverflow
	// KindConnectionClosed is returned once a stream session has shut down.
	KindConnectionClosed
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindDecode:
		return "decode"
	case KindAPI:
		return "api"
	case KindAuth:
		return "auth"
	case KindRetriesExhausted:
		return "retries_exhausted"
	case KindOverflow:
		return "overflow"
	case KindConnectionClosed:
		return "connection_closed"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is the error type returned by every operation in this module.
type Error struct {
	// Kind discriminates the failure class.
	Kind Kind

	// Op is the operation that failed, e.g. "execute" or "dial".
	Op string

	// Status is the HTTP status or stream error code, if any.
	Status int

	// Message is the detail reported by the remote service, if any.
	Message string

	// Err is the underlying error, if any.
	Err error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("marketwire: %s %s", e.Op, e.Kind)
	if e.Status > 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a *Error of the given kind.
func IsKind(err error, k Kind) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Kind == k
}
