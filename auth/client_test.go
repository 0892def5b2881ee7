package auth

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	healthbridge "github.com/vitalsync/health-bridge"
	"github.com/vitalsync/health-bridge/mock"
)

func newAuthClient(t *testing.T) (*Client, *mock.Transport) {
	t.Helper()
	transport := mock.NewTransport()
	api := healthbridge.New("https://api.vitalsync.test",
		healthbridge.WithTransport(transport),
		healthbridge.WithRetryPolicy(healthbridge.RetryPolicy{MaxAttempts: 1, BaseBackoff: time.Millisecond, MaxBackoff: time.Millisecond}),
	)
	return NewClient(api), transport
}

func signedJWT(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	signed, err := token.SignedString([]byte("test-signing-key"))
	require.NoError(t, err)
	return signed
}

func TestLoginStoresCredential(t *testing.T) {
	c, transport := newAuthClient(t)
	transport.QueueStatus(200, `{
		"token_type": "Bearer",
		"access_token": "at-1",
		"refresh_token": "rt-1",
		"expires_in": 3600
	}`)

	require.NoError(t, c.Login(context.Background(), "a@b.test", "pw"))

	cred, ok := c.creds.Current()
	require.True(t, ok)
	assert.Equal(t, "at-1", cred.AccessToken)
	assert.Equal(t, "rt-1", cred.RefreshToken)
	assert.WithinDuration(t, time.Now().Add(time.Hour), cred.ExpiresAt, 5*time.Second)

	// Wire shape of the login request.
	var sent loginRequest
	require.NoError(t, json.Unmarshal(transport.Body(0), &sent))
	assert.Equal(t, "a@b.test", sent.Email)
	assert.Equal(t, "pw", sent.Password)
}

func TestLoginFailureStoresNothing(t *testing.T) {
	c, transport := newAuthClient(t)
	transport.QueueStatus(401, `{"error":"bad credentials"}`)

	err := c.Login(context.Background(), "a@b.test", "wrong")
	assert.ErrorIs(t, err, healthbridge.ErrUnauthorized)

	_, ok := c.creds.Current()
	assert.False(t, ok)
}

func TestLoginExpiryFallsBackToJWTClaim(t *testing.T) {
	c, transport := newAuthClient(t)
	exp := time.Now().Add(45 * time.Minute)
	body, err := json.Marshal(tokenResponse{
		AccessToken:  signedJWT(t, exp),
		RefreshToken: "rt-1",
	})
	require.NoError(t, err)
	transport.QueueStatus(200, string(body))

	require.NoError(t, c.Login(context.Background(), "a@b.test", "pw"))

	cred, ok := c.creds.Current()
	require.True(t, ok)
	assert.WithinDuration(t, exp, cred.ExpiresAt, time.Second)
}

func TestLoginOpaqueTokenGetsDefaultLifetime(t *testing.T) {
	c, transport := newAuthClient(t)
	transport.QueueStatus(200, `{"access_token":"opaque-at","refresh_token":"rt-1"}`)

	require.NoError(t, c.Login(context.Background(), "a@b.test", "pw"))

	cred, ok := c.creds.Current()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(defaultTokenLifetime), cred.ExpiresAt, 5*time.Second)
}

func TestTokenResponseMissingFieldsIsDecodingFailure(t *testing.T) {
	c, transport := newAuthClient(t)
	transport.QueueStatus(200, `{"access_token":"at-only"}`)

	err := c.Login(context.Background(), "a@b.test", "pw")
	assert.ErrorIs(t, err, healthbridge.ErrDecodingFailed)
}

func TestRefreshRotatesCredential(t *testing.T) {
	c, transport := newAuthClient(t)
	require.NoError(t, c.creds.Save(healthbridge.Credential{
		AccessToken:  "at-old",
		RefreshToken: "rt-old",
		ExpiresAt:    time.Now().Add(time.Hour),
	}))
	transport.QueueStatus(200, `{"access_token":"at-new","refresh_token":"rt-new","expires_in":3600}`)

	require.NoError(t, c.Refresh(context.Background()))

	var sent refreshRequest
	require.NoError(t, json.Unmarshal(transport.Body(0), &sent))
	assert.Equal(t, "rt-old", sent.RefreshToken)

	cred, ok := c.creds.Current()
	require.True(t, ok)
	assert.Equal(t, "at-new", cred.AccessToken)
	assert.Equal(t, "rt-new", cred.RefreshToken)
}

func TestRefreshWithoutCredentialFails(t *testing.T) {
	c, transport := newAuthClient(t)

	err := c.Refresh(context.Background())
	assert.ErrorIs(t, err, healthbridge.ErrUnauthorized)
	assert.Equal(t, 0, transport.Sends())
}

func TestRefreshFailureDestroysCredential(t *testing.T) {
	c, transport := newAuthClient(t)
	require.NoError(t, c.creds.Save(healthbridge.Credential{
		AccessToken:  "at-old",
		RefreshToken: "rt-revoked",
		ExpiresAt:    time.Now().Add(time.Hour),
	}))
	transport.QueueStatus(401, `{"error":"refresh token revoked"}`)

	err := c.Refresh(context.Background())
	require.Error(t, err)

	_, ok := c.creds.Current()
	assert.False(t, ok, "a session that cannot refresh is over")
}

func TestLogoutClearsCredentialEvenWhenServerRejects(t *testing.T) {
	c, transport := newAuthClient(t)
	require.NoError(t, c.creds.Save(healthbridge.Credential{
		AccessToken:  "at-1",
		RefreshToken: "rt-1",
		ExpiresAt:    time.Now().Add(time.Hour),
	}))
	transport.QueueStatus(401, `{"error":"already invalid"}`)

	require.NoError(t, c.Logout(context.Background()))

	_, ok := c.creds.Current()
	assert.False(t, ok)
}
