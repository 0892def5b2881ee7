// classifier.go
// -------------
// Maps failed wire responses and transport-level errors onto the
// normalized taxonomy in errors.go. Classification is status-code-first;
// for generic 4xx/5xx responses the human message is extracted by trying
// a sequence of known error-body shapes, because the backend does not use
// one consistent error envelope across its endpoints.
package healthbridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/url"
	"strings"

	"github.com/vitalsync/health-bridge/internal/timeutil"
)

// classifyResponse turns a non-2xx response into a normalized error.
// Pure: identical inputs always yield identical outputs.
func classifyResponse(resp *Response) *Error {
	switch {
	case resp.StatusCode == 401:
		return &Error{Kind: KindUnauthorized, StatusCode: 401, Message: extractMessage(resp.Body)}
	case resp.StatusCode == 403:
		return &Error{Kind: KindForbidden, StatusCode: 403, Message: extractMessage(resp.Body)}
	case resp.StatusCode == 404:
		return &Error{Kind: KindNotFound, StatusCode: 404, Message: extractMessage(resp.Body)}
	case resp.StatusCode == 429:
		e := &Error{Kind: KindRateLimited, StatusCode: 429, Message: extractMessage(resp.Body)}
		if d, ok := timeutil.ParseRetryAfter(resp.Header("retry-after")); ok {
			e.RetryAfter = &d
		}
		return e
	case resp.StatusCode >= 400 && resp.StatusCode <= 599:
		return &Error{Kind: KindServerError, StatusCode: resp.StatusCode, Message: extractMessage(resp.Body)}
	default:
		return &Error{Kind: KindUnknown, StatusCode: resp.StatusCode, Message: extractMessage(resp.Body)}
	}
}

// Known error-body shapes, tried in order. The first one that parses to a
// non-empty message wins; raw text is the last resort.
type errShapeError struct {
	Error string `json:"error"`
}

type errShapeMessage struct {
	Message string `json:"message"`
}

type errShapeList struct {
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

type errShapeDetail struct {
	Detail string `json:"detail"`
}

// extractMessage pulls a human-readable message out of an error response
// body, degrading gracefully when the body matches none of the known
// JSON envelopes. Returns "" when nothing usable is present.
func extractMessage(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}

	var se errShapeError
	if err := json.Unmarshal(body, &se); err == nil && se.Error != "" {
		return se.Error
	}
	var sm errShapeMessage
	if err := json.Unmarshal(body, &sm); err == nil && sm.Message != "" {
		return sm.Message
	}
	var sl errShapeList
	if err := json.Unmarshal(body, &sl); err == nil && len(sl.Errors) > 0 && sl.Errors[0].Message != "" {
		return sl.Errors[0].Message
	}
	var sd errShapeDetail
	if err := json.Unmarshal(body, &sd); err == nil && sd.Detail != "" {
		return sd.Detail
	}

	// Raw non-JSON text. JSON that parsed but matched no shape yields "".
	if json.Valid(body) {
		return ""
	}
	return string(body)
}

// classifyTransportError maps a transport send failure (no HTTP response
// was produced) onto the taxonomy.
func classifyTransportError(err error) *Error {
	switch {
	case errors.Is(err, context.Canceled):
		return newError(KindCancelled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return newError(KindTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return newError(KindTimeout, err)
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return newError(KindOffline, err)
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return newError(KindOffline, err)
	}

	// url.Error wrapping something we couldn't identify above: the
	// request left the building but no parseable HTTP response came back.
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if strings.Contains(urlErr.Err.Error(), "connection") {
			return newError(KindOffline, err)
		}
		return newError(KindInvalidResponse, err)
	}

	return newError(KindInvalidResponse, err)
}
