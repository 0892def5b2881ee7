// request_builder.go
// ------------------
// Turns a Request descriptor plus the client's base address and default
// headers into a concrete *http.Request. Building is pure: no I/O, no
// shared state. Default headers are applied first, then the descriptor's
// headers, so descriptor values win on key collision.
package healthbridge

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

var allowedMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

// buildHTTPRequest resolves the descriptor against baseURL and produces a
// wire request. The body is passed separately from the descriptor because
// the codec may have transformed it. Failures are terminal InvalidRequest
// errors: a descriptor that cannot be built once cannot be built on retry
// either.
func buildHTTPRequest(ctx context.Context, req *Request, body []byte, baseURL string, defaultHeaders map[string]string) (*http.Request, error) {
	if !allowedMethods[req.Method] {
		return nil, &Error{Kind: KindInvalidRequest, Message: fmt.Sprintf("unsupported method %q", req.Method)}
	}

	target, err := resolveURL(baseURL, req.Path, req.Query)
	if err != nil {
		return nil, &Error{Kind: KindInvalidRequest, Message: err.Error(), cause: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Kind: KindInvalidRequest, Message: err.Error(), cause: err}
	}

	for k, v := range defaultHeaders {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if httpReq.Header.Get("Content-Type") == "" && body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	// Fresh id per built request, so each retry attempt is traceable
	// server-side as its own request.
	httpReq.Header.Set("X-Request-ID", uuid.New().String())

	return httpReq, nil
}

// resolveURL joins base and path and appends query parameters in their
// declared order.
func resolveURL(baseURL, path string, query []QueryParam) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base address %q: %w", baseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return "", fmt.Errorf("base address %q missing scheme or host", baseURL)
	}
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("invalid path %q: %w", path, err)
	}
	if ref.IsAbs() || ref.Host != "" {
		return "", fmt.Errorf("path %q must be relative to the base address", path)
	}

	resolved := base.ResolveReference(ref)

	if len(query) > 0 {
		var b strings.Builder
		if resolved.RawQuery != "" {
			b.WriteString(resolved.RawQuery)
		}
		for _, p := range query {
			if p.Key == "" {
				return "", fmt.Errorf("query parameter with empty key")
			}
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(p.Key))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(p.Value))
		}
		resolved.RawQuery = b.String()
	}

	return resolved.String(), nil
}

// attachCredential sets the bearer authorization header. Total; never fails.
func attachCredential(httpReq *http.Request, accessToken string) {
	httpReq.Header.Set("Authorization", "Bearer "+accessToken)
}
