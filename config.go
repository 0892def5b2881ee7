// config.go
// ----------
// Functional options for customizing client behavior: retry tuning,
// injected credential storage, the field-encryption codec, transport
// substitution, default headers, and logging.
//
// Everything here has a working default; options exist so the host app
// can wire its keychain-backed secret store and device-derived data key
// without the client knowing about either.
package healthbridge

import (
	"log/slog"

	"github.com/vitalsync/health-bridge/crypto"
)

// Option customizes a Client at construction.
type Option func(*Client)

// WithCredentialStore injects the credential store, typically backed by
// the platform keychain via a SecretStore implementation.
func WithCredentialStore(store *CredentialStore) Option {
	return func(c *Client) { c.credentials = store }
}

// WithCodec enables field encryption for the codec's sensitive paths.
func WithCodec(codec *crypto.Codec) Option {
	return func(c *Client) { c.codec = codec }
}

// WithRetryPolicy replaces the default retry policy.
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(c *Client) { c.policy = policy }
}

// WithTransport replaces the transport; tests use mock.Transport here.
func WithTransport(t Transport) Option {
	return func(c *Client) { c.transport = t }
}

// WithLogger sets the structured logger. Per-attempt detail is logged at
// debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithDefaultHeader adds a header applied to every request. Descriptor
// headers win on collision.
func WithDefaultHeader(key, value string) Option {
	return func(c *Client) { c.defaultHeaders[key] = value }
}
