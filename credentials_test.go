package healthbridge

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCredential() Credential {
	return Credential{
		AccessToken:  "access-abc",
		RefreshToken: "refresh-def",
		ExpiresAt:    time.Now().Add(time.Hour),
	}
}

func TestCredentialStoreSaveAndCurrent(t *testing.T) {
	cs := NewCredentialStore(nil)
	cred := validCredential()

	require.NoError(t, cs.Save(cred))

	got, ok := cs.Current()
	require.True(t, ok)
	assert.Equal(t, cred.AccessToken, got.AccessToken)
	assert.Equal(t, cred.RefreshToken, got.RefreshToken)
	assert.WithinDuration(t, cred.ExpiresAt, got.ExpiresAt, time.Millisecond)

	token, ok := cs.AccessToken()
	require.True(t, ok)
	assert.Equal(t, "access-abc", token)
}

func TestCredentialStoreAbsentByDefault(t *testing.T) {
	cs := NewCredentialStore(nil)
	_, ok := cs.Current()
	assert.False(t, ok)
	_, ok = cs.AccessToken()
	assert.False(t, ok)
}

func TestCredentialStoreRejectsPartialCredential(t *testing.T) {
	cs := NewCredentialStore(nil)

	err := cs.Save(Credential{AccessToken: "only-access"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPersistence))

	_, ok := cs.Current()
	assert.False(t, ok)
}

func TestCredentialStoreLazyExpiryEviction(t *testing.T) {
	secrets := NewMemorySecretStore()
	cs := NewCredentialStore(secrets)

	cred := validCredential()
	cred.ExpiresAt = time.Now().Add(50 * time.Millisecond)
	require.NoError(t, cs.Save(cred))

	_, ok := cs.Current()
	require.True(t, ok)

	cs.now = func() time.Time { return cred.ExpiresAt.Add(time.Second) }

	_, ok = cs.Current()
	assert.False(t, ok, "expired credential must read as absent")

	// Eviction cleared the underlying storage, not just the read.
	_, err := secrets.Get(secretKeyAccessToken)
	assert.ErrorIs(t, err, ErrSecretNotFound)
}

func TestCredentialStoreEvictionDoesNotDestroyFreshSave(t *testing.T) {
	cs := NewCredentialStore(nil)

	stale := validCredential()
	stale.ExpiresAt = time.Now().Add(-time.Minute)
	require.NoError(t, cs.Save(stale))

	fresh := Credential{
		AccessToken:  "access-fresh",
		RefreshToken: "refresh-fresh",
		ExpiresAt:    time.Now().Add(time.Hour),
	}

	// Pin the worst interleaving: a login completes between the expiry
	// check reading the stale credential and eviction taking the write
	// lock. The clock hook runs unlocked, so saving from inside it is
	// exactly that window.
	var once sync.Once
	cs.now = func() time.Time {
		once.Do(func() {
			require.NoError(t, cs.Save(fresh))
		})
		return time.Now()
	}

	got, ok := cs.Current()
	require.True(t, ok, "freshly saved credential must survive the stale eviction")
	assert.Equal(t, "access-fresh", got.AccessToken)
	assert.Equal(t, "refresh-fresh", got.RefreshToken)
}

func TestCredentialStoreClear(t *testing.T) {
	cs := NewCredentialStore(nil)
	require.NoError(t, cs.Save(validCredential()))

	cs.Clear()

	_, ok := cs.Current()
	assert.False(t, ok)
}

// failingSecretStore rejects writes to a chosen key and fails all reads
// once poisoned.
type failingSecretStore struct {
	*MemorySecretStore
	failSetKey string
	failReads  bool
}

func (f *failingSecretStore) Set(key, value string) error {
	if key == f.failSetKey {
		return errors.New("keychain unavailable")
	}
	return f.MemorySecretStore.Set(key, value)
}

func (f *failingSecretStore) Get(key string) (string, error) {
	if f.failReads {
		return "", errors.New("keychain unavailable")
	}
	return f.MemorySecretStore.Get(key)
}

func TestCredentialStoreSaveFailureLeavesNoPartial(t *testing.T) {
	secrets := &failingSecretStore{MemorySecretStore: NewMemorySecretStore(), failSetKey: secretKeyRefreshToken}
	cs := NewCredentialStore(secrets)

	err := cs.Save(validCredential())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPersistence))

	// The partially written access token must not be readable.
	_, ok := cs.Current()
	assert.False(t, ok)
	_, err = secrets.MemorySecretStore.Get(secretKeyAccessToken)
	assert.ErrorIs(t, err, ErrSecretNotFound)
}

func TestCredentialStoreReadFailureFailsSafeToLoggedOut(t *testing.T) {
	secrets := &failingSecretStore{MemorySecretStore: NewMemorySecretStore()}
	cs := NewCredentialStore(secrets)
	require.NoError(t, cs.Save(validCredential()))

	secrets.failReads = true

	_, ok := cs.Current()
	assert.False(t, ok, "storage read failure reads as absent, never as an error")
}

func TestCredentialStoreConcurrentReadersNeverSeeTornWrite(t *testing.T) {
	cs := NewCredentialStore(nil)
	pairs := []Credential{
		{AccessToken: "a1", RefreshToken: "r1", ExpiresAt: time.Now().Add(time.Hour)},
		{AccessToken: "a2", RefreshToken: "r2", ExpiresAt: time.Now().Add(time.Hour)},
	}
	require.NoError(t, cs.Save(pairs[0]))

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
				_ = cs.Save(pairs[i%2])
			}
		}
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				cred, ok := cs.Current()
				if !ok {
					continue
				}
				// Access and refresh tokens always belong to the same pair.
				if cred.AccessToken == "a1" {
					assert.Equal(t, "r1", cred.RefreshToken)
				} else {
					assert.Equal(t, "r2", cred.RefreshToken)
				}
			}
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(stop)
	wg.Wait()
}
