// request.go
// ----------
// Value types for the logical request descriptor and the normalized wire
// response. A Request describes one logical call; it carries no identity
// beyond its values and is never mutated by the client. Every retry
// attempt rebuilds the concrete wire request from the descriptor.
package healthbridge

import "time"

// DefaultTimeout is applied when a Request does not specify its own.
const DefaultTimeout = 30 * time.Second

// QueryParam is a single key/value query pair. Query parameters are kept
// as an ordered list so the built URL is deterministic.
type QueryParam struct {
	Key   string
	Value string
}

// Request describes one logical API call.
type Request struct {
	Method       string
	Path         string
	Headers      map[string]string
	Query        []QueryParam
	Body         []byte
	RequiresAuth bool
	Timeout      time.Duration // zero means DefaultTimeout
}

// timeout returns the effective per-attempt timeout.
func (r *Request) timeout() time.Duration {
	if r.Timeout > 0 {
		return r.Timeout
	}
	return DefaultTimeout
}

// Response is the normalized transport response. Header keys are
// lowercased so lookups don't depend on server casing.
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
}

// Header returns the named response header, empty if absent. Name must be
// given lowercase.
func (r *Response) Header(name string) string {
	if r.Headers == nil {
		return ""
	}
	return r.Headers[name]
}
