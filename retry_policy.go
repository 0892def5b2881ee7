// retry_policy.go
// ---------------
// Pure retry decision logic. The policy maps (classified error, attempt
// count) to either Retry-after-delay or GiveUp; the executor owns the
// actual sleep and loop. Backoff is exponential (base * 2^attempt) with
// a multiplicative jitter term so a fleet of clients recovering from the
// same outage doesn't retry in lockstep, capped at MaxBackoff.
package healthbridge

import (
	"errors"
	"math/rand"
	"time"
)

// Decision is the outcome of one retry consultation.
type Decision struct {
	Retry bool
	Delay time.Duration
}

func giveUp() Decision                    { return Decision{} }
func retryAfter(d time.Duration) Decision { return Decision{Retry: true, Delay: d} }

// RetryPolicy decides whether a failed attempt should be retried.
type RetryPolicy struct {
	MaxAttempts       int
	BaseBackoff       time.Duration
	MaxBackoff        time.Duration
	RetryableStatuses map[int]bool

	// jitter returns a value in [0, 0.3). Injectable so tests can pin it.
	jitter func() float64
}

// DefaultRetryPolicy returns the standard policy: 3 attempts, 1s base
// backoff, 60s cap, retrying 500/502/503/504.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseBackoff: time.Second,
		MaxBackoff:  60 * time.Second,
		RetryableStatuses: map[int]bool{
			500: true,
			502: true,
			503: true,
			504: true,
		},
	}
}

// ShouldRetry consults the policy for the given classified error and
// zero-based attempt count.
func (p RetryPolicy) ShouldRetry(err error, attempt int) Decision {
	if attempt >= p.MaxAttempts {
		return giveUp()
	}

	var e *Error
	if !errors.As(err, &e) {
		return giveUp()
	}

	switch e.Kind {
	case KindRateLimited:
		// The server's pacing signal is authoritative. Without one,
		// retrying blind against an already-throttling backend only adds
		// load, so a bare 429 is terminal.
		if e.RetryAfter == nil {
			return giveUp()
		}
		return retryAfter(*e.RetryAfter)
	case KindOffline, KindTimeout:
		return retryAfter(p.backoff(attempt))
	case KindServerError:
		if p.RetryableStatuses[e.StatusCode] {
			return retryAfter(p.backoff(attempt))
		}
		return giveUp()
	default:
		// Unauthorized, Forbidden, NotFound, decoding/decryption
		// failures, cancellation: retrying cannot change the outcome.
		return giveUp()
	}
}

// backoff computes min(MaxBackoff, BaseBackoff * 2^attempt * (1 + jitter)).
func (p RetryPolicy) backoff(attempt int) time.Duration {
	base := p.BaseBackoff
	if base <= 0 {
		base = time.Second
	}
	d := base * (1 << attempt)
	if d > p.MaxBackoff || d <= 0 {
		d = p.MaxBackoff
	}

	j := p.jitterValue()
	d = time.Duration(float64(d) * (1 + j))
	if d > p.MaxBackoff {
		d = p.MaxBackoff
	}
	return d
}

func (p RetryPolicy) jitterValue() float64 {
	if p.jitter != nil {
		return p.jitter()
	}
	return rand.Float64() * 0.3
}
