// errors.go
// ---------
// This file defines the normalized error taxonomy surfaced by the client.
// Every failure, whether transport-level, HTTP-level, or crypto-level, is
// reduced to an *Error carrying one of a closed set of Kinds plus whatever
// minimal diagnostic payload the failure produced (status code, server
// message, server-specified retry delay).
//
// Callers match on kinds with errors.Is against the exported sentinels:
//
//	if errors.Is(err, healthbridge.ErrUnauthorized) { ... }
package healthbridge

import (
	"fmt"
	"time"
)

// Kind identifies one failure class in the closed taxonomy.
type Kind string

const (
	KindOffline          Kind = "offline"
	KindInvalidRequest   Kind = "invalid_request"
	KindInvalidResponse  Kind = "invalid_response"
	KindDecodingFailed   Kind = "decoding_failed"
	KindDecryptionFailed Kind = "decryption_failed"
	KindUnauthorized     Kind = "unauthorized"
	KindForbidden        Kind = "forbidden"
	KindNotFound         Kind = "not_found"
	KindServerError      Kind = "server_error"
	KindRateLimited      Kind = "rate_limited"
	KindTimeout          Kind = "timeout"
	KindCancelled        Kind = "cancelled"
	KindUnknown          Kind = "unknown"
)

// Error is the single error type observed by callers above the core.
type Error struct {
	Kind       Kind
	StatusCode int            // HTTP status, 0 if the failure never produced one
	Message    string         // server-supplied or diagnostic message, may be empty
	RetryAfter *time.Duration // server-specified delay on rate limiting, nil if absent

	cause error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.StatusCode != 0:
		return fmt.Sprintf("%s (status %d): %s", e.Kind, e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s (status %d)", e.Kind, e.StatusCode)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	case e.cause != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.cause)
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches any *Error of the same Kind, so the zero-payload sentinels
// below work as errors.Is targets.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinel values for errors.Is matching. Never returned directly; the
// client always returns an *Error carrying diagnostic payload.
var (
	ErrOffline          = &Error{Kind: KindOffline}
	ErrInvalidRequest   = &Error{Kind: KindInvalidRequest}
	ErrInvalidResponse  = &Error{Kind: KindInvalidResponse}
	ErrDecodingFailed   = &Error{Kind: KindDecodingFailed}
	ErrDecryptionFailed = &Error{Kind: KindDecryptionFailed}
	ErrUnauthorized     = &Error{Kind: KindUnauthorized}
	ErrForbidden        = &Error{Kind: KindForbidden}
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrServerError      = &Error{Kind: KindServerError}
	ErrRateLimited      = &Error{Kind: KindRateLimited}
	ErrTimeout          = &Error{Kind: KindTimeout}
	ErrCancelled        = &Error{Kind: KindCancelled}
	ErrUnknown          = &Error{Kind: KindUnknown}
)

// newError builds an *Error wrapping an underlying cause.
func newError(kind Kind, cause error) *Error {
	return &Error{Kind: kind, cause: cause}
}

// DecodingError wraps a JSON decode failure from a typed endpoint client.
func DecodingError(cause error) *Error {
	return &Error{Kind: KindDecodingFailed, Message: "response decoding failed", cause: cause}
}
