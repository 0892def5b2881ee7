package healthapi

import (
	"context"
	"net/http"

	healthbridge "github.com/vitalsync/health-bridge"
)

// ProfileClient reads the authenticated user's profile.
type ProfileClient struct {
	exec Executor
}

func NewProfileClient(exec Executor) *ProfileClient {
	return &ProfileClient{exec: exec}
}

// Me returns the current user's profile.
func (p *ProfileClient) Me(ctx context.Context) (*Profile, error) {
	data, err := p.exec.Execute(ctx, &healthbridge.Request{
		Method:       http.MethodGet,
		Path:         "/v1/auth/me",
		RequiresAuth: true,
	})
	if err != nil {
		return nil, err
	}
	var profile Profile
	if err := decode(data, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}
