package healthbridge

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterNoInfoProceeds(t *testing.T) {
	r := NewRateLimiter()
	assert.True(t, r.canProceed("/v1/health-data"))
	assert.Zero(t, r.delayBeforeNextRequest("/v1/health-data"))
}

func TestRateLimiterExhaustedWindowBlocks(t *testing.T) {
	r := NewRateLimiter()
	reset := time.Now().Add(2 * time.Second).Unix()
	r.Update("/v1/health-data", &Response{
		StatusCode: 200,
		Headers: map[string]string{
			"x-ratelimit-remaining": "0",
			"x-ratelimit-reset":     fmt.Sprintf("%d", reset),
		},
	})

	assert.False(t, r.canProceed("/v1/health-data"))
	delay := r.delayBeforeNextRequest("/v1/health-data")
	assert.Greater(t, delay, time.Duration(0))
	assert.LessOrEqual(t, delay, 2*time.Second)

	// Same path group, different leaf.
	assert.False(t, r.canProceed("/v1/health-data/batch"))
	// Different group unaffected.
	assert.True(t, r.canProceed("/v1/insights"))
}

func TestRateLimiterRemainingQuotaProceeds(t *testing.T) {
	r := NewRateLimiter()
	r.Update("/v1/insights", &Response{
		StatusCode: 200,
		Headers: map[string]string{
			"x-ratelimit-remaining": "42",
			"x-ratelimit-reset":     fmt.Sprintf("%d", time.Now().Add(time.Minute).Unix()),
		},
	})
	assert.True(t, r.canProceed("/v1/insights"))
}

func TestRateLimiter429RetryAfterBlocks(t *testing.T) {
	r := NewRateLimiter()
	r.Update("/v1/metrics/summary", &Response{
		StatusCode: 429,
		Headers:    map[string]string{"retry-after": "3"},
	})

	assert.False(t, r.canProceed("/v1/metrics/summary"))
	delay := r.delayBeforeNextRequest("/v1/metrics/summary")
	assert.Greater(t, delay, 2*time.Second)
	assert.LessOrEqual(t, delay, 3*time.Second)
}

func TestRateLimiterElapsedResetUnblocks(t *testing.T) {
	r := NewRateLimiter()
	r.Update("/v1/health-data", &Response{
		StatusCode: 200,
		Headers: map[string]string{
			"x-ratelimit-remaining": "0",
			"x-ratelimit-reset":     fmt.Sprintf("%d", time.Now().Add(-time.Second).Unix()),
		},
	})
	assert.True(t, r.canProceed("/v1/health-data"))
	assert.Zero(t, r.delayBeforeNextRequest("/v1/health-data"))
}

func TestRateLimiterSuccessClearsStaleExhaustion(t *testing.T) {
	r := NewRateLimiter()
	r.Update("/v1/health-data", &Response{
		StatusCode: 429,
		Headers:    map[string]string{"retry-after": "60"},
	})
	assert.False(t, r.canProceed("/v1/health-data"))

	// A later success with no limit headers clears the stale block.
	r.Update("/v1/health-data", &Response{StatusCode: 200, Headers: map[string]string{}})
	assert.True(t, r.canProceed("/v1/health-data"))
}

func TestParseIntHeader(t *testing.T) {
	cases := []struct {
		value string
		want  int
		ok    bool
	}{
		{"42", 42, true},
		{" 7 ", 7, true},
		{"0", 0, true},
		{"", 0, false},
		{"abc", 0, false},
		{"-1", 0, false},
		// Out-of-range values are rejected, not wrapped.
		{"9999999999999999999999999", 0, false},
	}
	for _, c := range cases {
		got, ok := parseIntHeader(c.value)
		assert.Equal(t, c.ok, ok, "value %q", c.value)
		assert.Equal(t, c.want, got, "value %q", c.value)
	}
}

func TestPathGroup(t *testing.T) {
	assert.Equal(t, "/v1/health-data", pathGroup("/v1/health-data"))
	assert.Equal(t, "/v1/health-data", pathGroup("/v1/health-data/batch"))
	assert.Equal(t, "/v1/health-data", pathGroup("/v1/health-data/123/status"))
	assert.Equal(t, "/v1", pathGroup("/v1"))
}
