// auth/client.go
// --------------
// Token lifecycle client: login, refresh, and logout against the auth
// endpoints. Tokens are carried as *oauth2.Token between the wire and
// the credential store. Expiry comes from the server-reported lifetime;
// when the server omits one, the access token's own exp claim is used as
// a fallback, parsed without signature verification: the server remains
// authoritative, the claim only schedules local eviction.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/oauth2"

	healthbridge "github.com/vitalsync/health-bridge"
)

const (
	loginPath   = "/v1/auth/login"
	refreshPath = "/v1/auth/refresh"
	logoutPath  = "/v1/auth/logout"

	// Applied when neither the server nor the token itself reports a
	// lifetime, so a credential never becomes uneviciable.
	defaultTokenLifetime = 15 * time.Minute
)

// Client performs the authentication flows. It shares the credential
// store with the API client it wraps, so a successful login is
// immediately visible to in-flight authenticated requests.
type Client struct {
	api   *healthbridge.Client
	creds *healthbridge.CredentialStore
}

func NewClient(api *healthbridge.Client) *Client {
	return &Client{api: api, creds: api.Credentials()}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// tokenResponse represents the JSON structure returned by the token
// endpoints.
type tokenResponse struct {
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Login exchanges user credentials for a token pair and persists it.
// A persistence failure surfaces here, not to later API calls.
func (c *Client) Login(ctx context.Context, email, password string) error {
	body, err := json.Marshal(loginRequest{Email: email, Password: password})
	if err != nil {
		return err
	}
	data, err := c.api.Execute(ctx, &healthbridge.Request{
		Method: http.MethodPost,
		Path:   loginPath,
		Body:   body,
	})
	if err != nil {
		return err
	}
	tok, err := tokenFromResponse(data)
	if err != nil {
		return err
	}
	return c.saveToken(tok)
}

// Refresh exchanges the stored refresh token for a new pair. Any failure
// destroys the stored credential: a session that cannot refresh is over.
func (c *Client) Refresh(ctx context.Context) error {
	cred, ok := c.creds.Current()
	if !ok {
		return &healthbridge.Error{Kind: healthbridge.KindUnauthorized, Message: "no refresh token available"}
	}
	body, err := json.Marshal(refreshRequest{RefreshToken: cred.RefreshToken})
	if err != nil {
		return err
	}
	data, err := c.api.Execute(ctx, &healthbridge.Request{
		Method: http.MethodPost,
		Path:   refreshPath,
		Body:   body,
	})
	if err != nil {
		c.creds.Clear()
		return err
	}
	tok, err := tokenFromResponse(data)
	if err != nil {
		c.creds.Clear()
		return err
	}
	return c.saveToken(tok)
}

// Logout revokes the session server-side and clears the stored
// credential. The local clear happens regardless of the revocation
// outcome; a device that wants to be logged out is logged out.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.api.Execute(ctx, &healthbridge.Request{
		Method:       http.MethodPost,
		Path:         logoutPath,
		RequiresAuth: true,
	})
	c.creds.Clear()
	if err != nil && errors.Is(err, healthbridge.ErrUnauthorized) {
		// Already logged out server-side.
		return nil
	}
	return err
}

func (c *Client) saveToken(tok *oauth2.Token) error {
	return c.creds.Save(healthbridge.Credential{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
	})
}

// tokenFromResponse parses a token endpoint response and resolves the
// token's expiry.
func tokenFromResponse(data []byte) (*oauth2.Token, error) {
	var tr tokenResponse
	if err := json.Unmarshal(data, &tr); err != nil {
		return nil, healthbridge.DecodingError(err)
	}
	if tr.AccessToken == "" || tr.RefreshToken == "" {
		return nil, healthbridge.DecodingError(errors.New("token response missing access or refresh token"))
	}

	tok := &oauth2.Token{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		TokenType:    tr.TokenType,
	}
	switch {
	case tr.ExpiresIn > 0:
		tok.Expiry = time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	default:
		if exp, ok := expiryFromJWT(tr.AccessToken); ok {
			tok.Expiry = exp
		} else {
			tok.Expiry = time.Now().Add(defaultTokenLifetime)
		}
	}
	return tok, nil
}

// expiryFromJWT extracts the exp claim from an access token, without
// verifying the signature.
func expiryFromJWT(accessToken string) (time.Time, bool) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
