// crypto/codec.go
// ---------------
// Field-level authenticated encryption for sensitive payloads. The codec
// recognizes the known sensitive shapes (a single record, a list of
// records, or a batch request with a records array) and envelopes only
// the measurement value of each record, leaving identifiers, units, and
// timestamps cleartext. Payloads matching no known shape pass through
// unmodified so unrelated traffic on a sensitive-looking path is never
// blocked.
package crypto

import (
	"bytes"
	"crypto/cipher"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

// ErrDecrypt is returned for any decryption failure: malformed base64,
// wrong nonce length, or a failed authentication tag check. The message
// deliberately carries no payload material.
var ErrDecrypt = errors.New("decryption failed")

// ErrInvalidKeyLength is returned when the provided key length is invalid.
var ErrInvalidKeyLength = errors.New("invalid key length")

// Codec encrypts and decrypts sensitive payload fields for a fixed set
// of endpoint paths.
type Codec struct {
	aead  cipher.AEAD
	paths []string
}

// NewCodec builds a codec from a 32-byte data key and the allow-list of
// path prefixes whose payloads carry protected health data.
func NewCodec(key []byte, sensitivePaths []string) (*Codec, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidKeyLength, chacha20poly1305.KeySize, len(key))
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	return &Codec{aead: aead, paths: sensitivePaths}, nil
}

// DefaultSensitivePaths covers the endpoints that carry raw measurement
// values: health-data creation and batch upload, medications, allergies.
func DefaultSensitivePaths() []string {
	return []string{
		"/v1/health-data",
		"/v1/medications",
		"/v1/allergies",
	}
}

// ShouldEncrypt reports whether payloads for path are subject to field
// encryption.
func (c *Codec) ShouldEncrypt(path string) bool {
	for _, p := range c.paths {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

// Encode envelopes the sensitive values of body. The second return value
// reports whether anything was encrypted; when false the body is
// returned unchanged and must not be tagged with the encrypted content
// marker.
func (c *Codec) Encode(body []byte) ([]byte, bool, error) {
	return c.transform(body, c.sealValue)
}

// Decode reverses Encode. Only call it for bodies tagged with the
// encrypted content marker; any failure to recover plaintext is
// ErrDecrypt.
func (c *Codec) Decode(body []byte) ([]byte, error) {
	out, _, err := c.transform(body, c.openValue)
	return out, err
}

// transform walks the known shapes and applies op to each record's value.
func (c *Codec) transform(body []byte, op func(json.RawMessage) (json.RawMessage, bool, error)) ([]byte, bool, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return body, false, nil
	}

	switch trimmed[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return body, false, nil
		}
		changed := false
		for i, item := range items {
			out, did, err := c.transformRecord(item, op)
			if err != nil {
				return nil, false, err
			}
			items[i] = out
			changed = changed || did
		}
		if !changed {
			return body, false, nil
		}
		encoded, err := json.Marshal(items)
		return encoded, true, err

	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return body, false, nil
		}

		if records, ok := obj["records"]; ok {
			out, changed, err := c.transform(records, op)
			if err != nil {
				return nil, false, err
			}
			if !changed {
				return body, false, nil
			}
			obj["records"] = out
			encoded, err := json.Marshal(obj)
			return encoded, true, err
		}

		out, changed, err := c.transformRecord(trimmed, op)
		if err != nil {
			return nil, false, err
		}
		if !changed {
			return body, false, nil
		}
		return out, true, nil
	}

	return body, false, nil
}

// transformRecord applies op to the "value" field of one record object.
// Records without a value field pass through untouched.
func (c *Codec) transformRecord(raw json.RawMessage, op func(json.RawMessage) (json.RawMessage, bool, error)) (json.RawMessage, bool, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return raw, false, nil
	}
	value, ok := obj["value"]
	if !ok {
		return raw, false, nil
	}

	out, changed, err := op(value)
	if err != nil {
		return nil, false, err
	}
	if !changed {
		return raw, false, nil
	}
	obj["value"] = out
	encoded, err := json.Marshal(obj)
	return encoded, changed, err
}

// sealValue envelopes one plaintext value with a fresh random nonce.
// Already-enveloped values are left alone.
func (c *Codec) sealValue(plaintext json.RawMessage) (json.RawMessage, bool, error) {
	if looksLikeEnvelope(plaintext) {
		return plaintext, false, nil
	}

	nonce, err := randomBytes(c.aead.NonceSize())
	if err != nil {
		return nil, false, fmt.Errorf("nonce generation: %w", err)
	}
	ciphertext := c.aead.Seal(nil, nonce, plaintext, nil)

	env := Envelope{
		Alg:   AlgorithmAEAD256,
		Nonce: base64.StdEncoding.EncodeToString(nonce),
		Data:  base64.StdEncoding.EncodeToString(ciphertext),
	}
	encoded, err := json.Marshal(env)
	return encoded, true, err
}

// openValue decrypts one enveloped value back to its plaintext JSON.
func (c *Codec) openValue(raw json.RawMessage) (json.RawMessage, bool, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return raw, false, nil
	}
	if env.Alg == "" || env.Nonce == "" || env.Data == "" {
		return raw, false, nil
	}
	if env.Alg != AlgorithmAEAD256 {
		return nil, false, ErrDecrypt
	}

	nonce, err := base64.StdEncoding.DecodeString(env.Nonce)
	if err != nil || len(nonce) != c.aead.NonceSize() {
		return nil, false, ErrDecrypt
	}
	ciphertext, err := base64.StdEncoding.DecodeString(env.Data)
	if err != nil {
		return nil, false, ErrDecrypt
	}

	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, false, ErrDecrypt
	}
	if !json.Valid(plaintext) {
		return nil, false, ErrDecrypt
	}
	return plaintext, true, nil
}
