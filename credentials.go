// credentials.go
// --------------
// Credential lifetime management over a durable secure key-value boundary.
// The CredentialStore is the single source of truth for whether the
// client is authenticated. It owns expiry eviction and guarantees readers
// never observe a torn credential (an old access token paired with a new
// refresh token). Writes are serialized, reads are shared.
//
// The SecretStore boundary is what the host application implements over
// its platform keychain; the in-memory implementation here is the test
// seam and the default for ephemeral sessions.
package healthbridge

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// Logical names under which the credential parts are stored. All three
// are written together and cleared together.
const (
	secretKeyAccessToken  = "hb_access_token"
	secretKeyRefreshToken = "hb_refresh_token"
	secretKeyExpiresAt    = "hb_expires_at"
)

// ErrSecretNotFound is returned by SecretStore implementations when a key
// is absent. The CredentialStore translates it (and any other read
// failure) to "not authenticated" rather than surfacing it.
var ErrSecretNotFound = errors.New("secret not found")

// ErrPersistence indicates the durable secret medium rejected a write.
// Surfaced to whoever performed the login/refresh that triggered the save.
var ErrPersistence = errors.New("credential persistence failed")

// SecretStore is durable, access-controlled key-value storage for secrets.
type SecretStore interface {
	Set(key, value string) error
	Get(key string) (string, error)
	Delete(key string) error
}

// Credential is the access/refresh token pair and its absolute expiry.
// A credential is either fully present or absent; a partially stored
// credential is treated as absent.
type Credential struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

func (c Credential) complete() bool {
	return c.AccessToken != "" && c.RefreshToken != "" && !c.ExpiresAt.IsZero()
}

// CredentialStore mediates all credential reads and writes.
type CredentialStore struct {
	mu      sync.RWMutex
	secrets SecretStore
	now     func() time.Time
}

// NewCredentialStore wraps the given secret medium. A nil store gets an
// in-memory medium, suitable for tests and sessions that need not survive
// a restart.
func NewCredentialStore(secrets SecretStore) *CredentialStore {
	if secrets == nil {
		secrets = NewMemorySecretStore()
	}
	return &CredentialStore{secrets: secrets, now: time.Now}
}

// Save stores a complete credential. A write failure on any part clears
// whatever was written, preserving the fully-present-or-absent invariant,
// and reports ErrPersistence.
func (cs *CredentialStore) Save(cred Credential) error {
	if !cred.complete() {
		return fmt.Errorf("%w: credential missing access token, refresh token, or expiry", ErrPersistence)
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()

	writes := []struct{ key, value string }{
		{secretKeyAccessToken, cred.AccessToken},
		{secretKeyRefreshToken, cred.RefreshToken},
		{secretKeyExpiresAt, cred.ExpiresAt.UTC().Format(time.RFC3339Nano)},
	}
	for _, w := range writes {
		if err := cs.secrets.Set(w.key, w.value); err != nil {
			cs.clearLocked()
			return fmt.Errorf("%w: %v", ErrPersistence, err)
		}
	}
	return nil
}

// Current returns the stored credential, or false if absent. Performs
// lazy expiry eviction: an expired credential is cleared and reported
// absent rather than returned stale. Read failures from the secret medium
// fail safe to logged-out.
func (cs *CredentialStore) Current() (Credential, bool) {
	cs.mu.RLock()
	cred, ok := cs.readLocked()
	cs.mu.RUnlock()
	if !ok {
		return Credential{}, false
	}

	if cs.now().Before(cred.ExpiresAt) {
		return cred, true
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()
	// Re-read under the write lock: a Save may have landed between the
	// shared read and here, and that fresh credential must survive.
	cred, ok = cs.readLocked()
	if !ok {
		return Credential{}, false
	}
	if cs.now().Before(cred.ExpiresAt) {
		return cred, true
	}
	cs.clearLocked()
	return Credential{}, false
}

// AccessToken returns the current access token, or false if the store
// holds no live credential.
func (cs *CredentialStore) AccessToken() (string, bool) {
	cred, ok := cs.Current()
	if !ok {
		return "", false
	}
	return cred.AccessToken, true
}

// Clear removes the stored credential (logout, failed refresh).
func (cs *CredentialStore) Clear() {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.clearLocked()
}

func (cs *CredentialStore) readLocked() (Credential, bool) {
	access, err := cs.secrets.Get(secretKeyAccessToken)
	if err != nil || access == "" {
		return Credential{}, false
	}
	refresh, err := cs.secrets.Get(secretKeyRefreshToken)
	if err != nil || refresh == "" {
		return Credential{}, false
	}
	expiryStr, err := cs.secrets.Get(secretKeyExpiresAt)
	if err != nil || expiryStr == "" {
		return Credential{}, false
	}
	expiry, err := time.Parse(time.RFC3339Nano, expiryStr)
	if err != nil {
		return Credential{}, false
	}
	return Credential{AccessToken: access, RefreshToken: refresh, ExpiresAt: expiry}, true
}

func (cs *CredentialStore) clearLocked() {
	// Best effort: a delete failure leaves at worst a partial credential,
	// which readers already treat as absent.
	_ = cs.secrets.Delete(secretKeyAccessToken)
	_ = cs.secrets.Delete(secretKeyRefreshToken)
	_ = cs.secrets.Delete(secretKeyExpiresAt)
}

// MemorySecretStore is a process-memory SecretStore.
type MemorySecretStore struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemorySecretStore() *MemorySecretStore {
	return &MemorySecretStore{values: make(map[string]string)}
}

func (m *MemorySecretStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemorySecretStore) Get(key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return "", ErrSecretNotFound
	}
	return v, nil
}

func (m *MemorySecretStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}
