// rate_limiter.go
// ----------------
// This file defines the RateLimiter type, which stores rate limit
// information the backend advertises through standard response headers
// (X-RateLimit-Remaining, X-RateLimit-Reset, Retry-After), keyed by path
// group. The executor consults it before each send so a request whose
// window is known to be exhausted waits for the reset instead of burning
// an attempt on a certain 429.
//
// Responsibilities:
// - Storing rate limit info keyed by path group (e.g. "/v1/health-data").
// - Checking if requests can proceed based on remaining quota and reset time.
// - Calculating delay durations before the next allowed request.
package healthbridge

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/vitalsync/health-bridge/internal/timeutil"
)

// rateLimitInfo mirrors what the backend last advertised for one path
// group. Pointer fields distinguish "unknown" from zero.
type rateLimitInfo struct {
	Remaining *int
	ResetAtMs *int64
}

type RateLimiter struct {
	mu     sync.Mutex
	limits map[string]*rateLimitInfo
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		limits: make(map[string]*rateLimitInfo),
	}
}

// Update records rate-limit state from a response's headers. Responses
// carrying no rate-limit headers leave existing state untouched, except
// that a success against an exhausted group clears the stale exhaustion.
func (r *RateLimiter) Update(path string, resp *Response) {
	remaining, hasRemaining := parseIntHeader(resp.Header("x-ratelimit-remaining"))
	resetMs, hasReset := timeutil.ParseUnixSeconds(resp.Header("x-ratelimit-reset"))

	if !hasReset {
		if d, ok := timeutil.ParseRetryAfter(resp.Header("retry-after")); ok && resp.StatusCode == 429 {
			ms := time.Now().Add(d).UnixMilli()
			resetMs, hasReset = ms, true
			if !hasRemaining {
				remaining, hasRemaining = 0, true
			}
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := pathGroup(path)
	if !hasRemaining && !hasReset {
		if resp.StatusCode < 400 {
			delete(r.limits, key)
		}
		return
	}

	info := &rateLimitInfo{}
	if hasRemaining {
		info.Remaining = &remaining
	}
	if hasReset {
		info.ResetAtMs = &resetMs
	}
	r.limits[key] = info
}

// canProceed reports whether a request to path may be sent immediately.
func (r *RateLimiter) canProceed(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, ok := r.limits[pathGroup(path)]
	if !ok || info == nil {
		// No known limits, assume proceed.
		return true
	}
	if info.Remaining != nil && *info.Remaining <= 0 {
		if info.ResetAtMs != nil && timeutil.IsInFuture(*info.ResetAtMs) {
			return false
		}
	}
	return true
}

// delayBeforeNextRequest returns how long to wait before a request to
// path is allowed, zero if it may proceed now.
func (r *RateLimiter) delayBeforeNextRequest(path string) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, ok := r.limits[pathGroup(path)]
	if !ok || info == nil {
		return 0
	}
	if info.Remaining != nil && *info.Remaining <= 0 && info.ResetAtMs != nil {
		nowMs := time.Now().UnixMilli()
		if nowMs < *info.ResetAtMs {
			return time.Duration(*info.ResetAtMs-nowMs) * time.Millisecond
		}
	}
	return 0
}

// pathGroup reduces a path to its first two segments, so per-resource
// limits ("/v1/health-data/batch", "/v1/health-data/123/status") share
// one bucket.
func pathGroup(path string) string {
	trimmed := strings.TrimPrefix(path, "/")
	parts := strings.SplitN(trimmed, "/", 3)
	if len(parts) >= 2 {
		return "/" + parts[0] + "/" + parts[1]
	}
	return "/" + trimmed
}

func parseIntHeader(value string) (int, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
