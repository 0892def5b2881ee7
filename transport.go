// transport.go
// ------------
// The transport boundary: everything below "send the wire request" lives
// behind the Transport interface so tests can script responses and the
// host app can substitute its own HTTP stack.
package healthbridge

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"
)

// Transport executes one wire request and returns the normalized
// response, or an error if no HTTP response was produced.
type Transport interface {
	RoundTrip(ctx context.Context, req *http.Request) (*Response, error)
}

// HTTPTransport is the default Transport over net/http. Per-attempt
// timeouts come from the request context; the embedded client carries no
// timeout of its own.
type HTTPTransport struct {
	client *http.Client
}

func NewHTTPTransport() *HTTPTransport {
	return &HTTPTransport{
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
	}
}

func (t *HTTPTransport) RoundTrip(ctx context.Context, req *http.Request) (*Response, error) {
	resp, err := t.client.Do(req.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	headers := make(map[string]string, len(resp.Header))
	for k, vals := range resp.Header {
		if len(vals) > 0 {
			headers[strings.ToLower(k)] = vals[0]
		}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    headers,
		Body:       data,
	}, nil
}
