package healthbridge

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/vitalsync/health-bridge/crypto"
)

// requestExecutor runs the per-call state machine: build, encrypt,
// authenticate, send, validate, retry per policy, decrypt on success.
// It owns the sleep/loop; retry decisions themselves come from the
// client's RetryPolicy.
type requestExecutor struct {
	client *Client
}

func newRequestExecutor(c *Client) *requestExecutor {
	return &requestExecutor{client: c}
}

func (re *requestExecutor) execute(ctx context.Context, req *Request) ([]byte, error) {
	c := re.client

	// Encrypt once up front: the envelope is part of the logical payload
	// and identical across attempts, unlike the wire request itself.
	body := req.Body
	encrypted := false
	if c.codec != nil && body != nil && c.codec.ShouldEncrypt(req.Path) {
		enc, did, err := c.codec.Encode(body)
		if err != nil {
			return nil, &Error{Kind: KindInvalidRequest, Message: "payload encryption failed", cause: err}
		}
		body, encrypted = enc, did
	}

	attempt := 0
	for {
		data, err := re.attempt(ctx, req, body, encrypted, attempt)
		if err == nil {
			if attempt > 0 {
				c.logger.Debug("request succeeded after retry", "path", req.Path, "attempts", attempt+1)
			}
			return data, nil
		}

		var e *Error
		if !errors.As(err, &e) {
			return nil, err
		}
		switch e.Kind {
		case KindUnauthorized, KindCancelled, KindInvalidRequest, KindDecryptionFailed:
			// Retrying cannot change these; Unauthorized in particular
			// belongs to the session layer, which may refresh and resubmit.
			return nil, err
		}

		decision := c.policy.ShouldRetry(e, attempt)
		if !decision.Retry {
			c.logger.Debug("giving up", "path", req.Path, "attempt", attempt+1, "error", e.Kind)
			return nil, err
		}

		c.logger.Debug("retrying request",
			"path", req.Path, "attempt", attempt+1, "max_attempts", c.policy.MaxAttempts,
			"error", e.Kind, "delay", decision.Delay)
		if serr := sleepContext(ctx, decision.Delay); serr != nil {
			return nil, newError(KindCancelled, serr)
		}
		attempt++
	}
}

// attempt performs one full pass: build a fresh wire request (so headers
// and request ids are current), attach the credential, wait out any known
// rate-limit window, send, and validate.
func (re *requestExecutor) attempt(ctx context.Context, req *Request, body []byte, encrypted bool, attempt int) ([]byte, error) {
	c := re.client

	// Wait out any advertised rate-limit window before the attempt clock
	// starts. The descriptor timeout covers the attempt itself, not the
	// pacing the server asked for.
	if !c.rateLimiter.canProceed(req.Path) {
		delay := c.rateLimiter.delayBeforeNextRequest(req.Path)
		if delay > 0 {
			c.logger.Debug("waiting for rate limit window", "path", req.Path, "delay", delay)
			if serr := sleepContext(ctx, delay); serr != nil {
				return nil, newError(KindCancelled, serr)
			}
		}
	}

	attemptCtx, cancel := context.WithTimeout(ctx, req.timeout())
	defer cancel()

	httpReq, err := buildHTTPRequest(attemptCtx, req, body, c.baseURL, c.defaultHeaders)
	if err != nil {
		return nil, err
	}
	if encrypted {
		httpReq.Header.Set("Content-Type", crypto.ContentTypeEncrypted)
	}

	if req.RequiresAuth {
		token, ok := c.credentials.AccessToken()
		if !ok {
			// Fail before any transport send; there is no point issuing
			// a call that can only come back 401.
			return nil, &Error{Kind: KindUnauthorized, Message: "no stored credential"}
		}
		attachCredential(httpReq, token)
	}

	c.logger.Debug("sending request", "method", req.Method, "path", req.Path, "attempt", attempt+1)
	resp, err := c.transport.RoundTrip(attemptCtx, httpReq)
	if err != nil {
		return nil, classifyTransportError(err)
	}

	c.rateLimiter.Update(req.Path, resp)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return re.postProcess(resp)
	}
	return nil, classifyResponse(resp)
}

// postProcess decrypts the response body when the backend tagged it with
// the encrypted content marker; plain responses pass through as-is.
func (re *requestExecutor) postProcess(resp *Response) ([]byte, error) {
	c := re.client
	if c.codec == nil || !strings.HasPrefix(resp.Header("content-type"), crypto.ContentTypeEncrypted) {
		return resp.Body, nil
	}
	plain, err := c.codec.Decode(resp.Body)
	if err != nil {
		return nil, newError(KindDecryptionFailed, err)
	}
	return plain, nil
}

// sleepContext waits for d or until ctx is done, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			return nil
		}
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
