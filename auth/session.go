// auth/session.go
// ---------------
// Session wraps the core client with exactly one refresh-and-resubmit on
// Unauthorized. The core's retry state machine never refreshes tokens
// itself; putting that here keeps the refresh bounded (no hidden
// recursion) and keeps session lifecycle out of the transport path.
package auth

import (
	"context"
	"errors"
	"sync"

	healthbridge "github.com/vitalsync/health-bridge"
)

type Session struct {
	api  *healthbridge.Client
	auth *Client

	// Serializes refreshes so N concurrent 401s trigger one token
	// exchange, not N.
	refreshMu sync.Mutex
}

func NewSession(api *healthbridge.Client) *Session {
	return &Session{api: api, auth: NewClient(api)}
}

// Auth exposes the underlying token client for login/logout flows.
func (s *Session) Auth() *Client {
	return s.auth
}

// Execute runs the request through the core client. If an authenticated
// request comes back Unauthorized, the session refreshes the credential
// once and resubmits once; a second Unauthorized surfaces to the caller.
func (s *Session) Execute(ctx context.Context, req *healthbridge.Request) ([]byte, error) {
	data, err := s.api.Execute(ctx, req)
	if err == nil || !req.RequiresAuth || !errors.Is(err, healthbridge.ErrUnauthorized) {
		return data, err
	}

	if rerr := s.refresh(ctx); rerr != nil {
		// Surface the original Unauthorized; the refresh failure already
		// cleared the credential.
		return nil, err
	}
	return s.api.Execute(ctx, req)
}

func (s *Session) refresh(ctx context.Context) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()
	return s.auth.Refresh(ctx)
}
