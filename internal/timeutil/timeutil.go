// internal/timeutil/timeutil.go
// -----------------------------
// Helpers for parsing server-supplied timing hints into standard forms.
// The backend reports rate-limit pacing through the Retry-After response
// header (delta-seconds or an HTTP-date) and window resets through
// X-RateLimit-Reset (UNIX seconds); these helpers normalize both to
// durations/milliseconds for the rate limiter and retry policy.
//
// Functions:
// - ParseRetryAfter: Convert a Retry-After header value into a duration.
// - ParseUnixSeconds: Convert a UNIX-seconds string into milliseconds.
// - UnixToMs: Convert a UNIX timestamp in seconds to milliseconds.
// - IsInFuture: Check if a given timestamp (ms) is in the future.
package timeutil

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ParseRetryAfter converts a Retry-After header value into a duration.
// Accepts delta-seconds ("5") or an HTTP-date (RFC 7231). Returns false
// for an empty, malformed, or already-elapsed value.
func ParseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}

	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}

	if t, err := http.ParseTime(value); err == nil {
		d := time.Until(t)
		if d < 0 {
			return 0, false
		}
		return d, true
	}

	return 0, false
}

// ParseUnixSeconds converts a UNIX-seconds string into milliseconds.
// Returns false if the value is not a positive integer.
func ParseUnixSeconds(value string) (int64, bool) {
	value = strings.TrimSpace(value)
	secs, err := strconv.ParseInt(value, 10, 64)
	if err != nil || secs <= 0 {
		return 0, false
	}
	return UnixToMs(secs), true
}

// UnixToMs converts a UNIX timestamp in seconds to milliseconds.
func UnixToMs(timestamp int64) int64 {
	return timestamp * 1000
}

// IsInFuture checks if a timestamp (in ms) is in the future relative to the current time.
func IsInFuture(ms int64) bool {
	return ms > time.Now().UnixMilli()
}
