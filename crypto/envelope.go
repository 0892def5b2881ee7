// crypto/envelope.go
// ------------------
// Wire shape of an encrypted field. The envelope is self-describing: the
// algorithm identifier travels with the data, so decryption needs no
// out-of-band negotiation. Ciphertext carries the authentication tag
// appended, per AEAD convention.
package crypto

import "encoding/json"

// AlgorithmAEAD256 identifies the ChaCha20-Poly1305 envelope format.
const AlgorithmAEAD256 = "AEAD-256"

// ContentTypeEncrypted is the media type marking a request or response
// body whose sensitive fields are enveloped. Bodies without this marker
// are plain JSON.
const ContentTypeEncrypted = "application/vnd.vitalsync.encrypted+json"

// Envelope wraps one encrypted value.
type Envelope struct {
	Alg   string `json:"alg"`
	Nonce string `json:"nonce"` // base64, NonceSize bytes once decoded
	Data  string `json:"data"`  // base64 ciphertext + auth tag
}

// looksLikeEnvelope reports whether raw parses as an Envelope with all
// three fields present. Used to recognize enveloped values inside
// otherwise-plain JSON and to keep Encode idempotent.
func looksLikeEnvelope(raw json.RawMessage) bool {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return false
	}
	return env.Alg != "" && env.Nonce != "" && env.Data != ""
}
