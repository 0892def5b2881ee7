// crypto/keys.go
// --------------
// Key material helpers for the field-encryption codec. The data key is
// either generated fresh (first run) or derived from a master secret
// bound to the device, so two installs sharing an account never share a
// data key.
package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// KeySize is the data key length in bytes.
const KeySize = chacha20poly1305.KeySize

// GenerateDataKey returns a fresh random 32-byte data key.
func GenerateDataKey() ([]byte, error) {
	return randomBytes(KeySize)
}

// DeriveDataKey derives a 32-byte data key from a master secret and a
// device binding using HKDF-SHA256. The same (secret, deviceID) pair
// always yields the same key.
func DeriveDataKey(masterSecret []byte, deviceID string) ([]byte, error) {
	if len(masterSecret) == 0 {
		return nil, ErrInvalidKeyLength
	}
	h := hkdf.New(sha256.New, masterSecret, []byte(deviceID), []byte("field-data-key"))
	out := make([]byte, KeySize)
	if _, err := io.ReadFull(h, out); err != nil {
		return nil, err
	}
	return out, nil
}

// randomBytes generates a slice of random bytes of the given length.
func randomBytes(length int) ([]byte, error) {
	b := make([]byte, length)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return nil, err
	}
	return b, nil
}
