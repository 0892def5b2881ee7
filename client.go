// client.go
// ---------
// The client.go file contains the core Client struct and its methods.
// This is the main entry point of the SDK for users.
//
// Key functionalities include:
// - Constructing a client with New() and functional options
// - Executing logical requests via Execute()
// - Accessing the credential store shared with the session layer
//
// The Client relies on a RateLimiter and a requestExecutor to handle
// rate limiting and retries, ensuring consistent behavior across all
// endpoints. It owns no long-lived request state; the CredentialStore is
// the only shared mutable collaborator and carries its own locking.
package healthbridge

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/vitalsync/health-bridge/crypto"
)

type Client struct {
	baseURL        string
	defaultHeaders map[string]string
	credentials    *CredentialStore
	codec          *crypto.Codec
	policy         RetryPolicy
	transport      Transport
	rateLimiter    *RateLimiter
	logger         *slog.Logger
	executor       *requestExecutor
}

// New constructs a client for the given base address. Unset collaborators
// get working defaults: an in-memory credential store, the net/http
// transport, the standard retry policy, and no field encryption.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		defaultHeaders: map[string]string{
			"Accept":     "application/json",
			"User-Agent": "health-bridge/1.0",
		},
		policy:      DefaultRetryPolicy(),
		rateLimiter: NewRateLimiter(),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.credentials == nil {
		c.credentials = NewCredentialStore(nil)
	}
	if c.transport == nil {
		c.transport = NewHTTPTransport()
	}
	c.executor = newRequestExecutor(c)
	return c
}

// Execute runs the descriptor through the full pipeline (build, encrypt,
// authenticate, send, validate, retry) and returns the response body,
// decrypted if the backend tagged it encrypted. All failures are
// *Error values from the closed taxonomy in errors.go.
func (c *Client) Execute(ctx context.Context, req *Request) ([]byte, error) {
	return c.executor.execute(ctx, req)
}

// Credentials exposes the credential store so login/refresh/logout flows
// and the client share one source of truth for the session.
func (c *Client) Credentials() *CredentialStore {
	return c.credentials
}

// RateLimitDelay reports how long requests to path are currently blocked
// by a server-advertised rate-limit window, zero if unblocked.
func (c *Client) RateLimitDelay(path string) time.Duration {
	return c.rateLimiter.delayBeforeNextRequest(path)
}
