// Package auth owns the session lifecycle for the Dimplex Control cloud API:
// the access/refresh token pair, its renewal against the identity provider,
// and its persistence between process runs.
package auth

import (
	"context"
	"sync"
	"time"

	"github.com/dimplex-community/dimplex-go/pkg/logger"
)

// RefreshFunc exchanges a refresh token for a new Credential. It is supplied
// by the Authenticator; the Store never talks to the network itself.
type RefreshFunc func(ctx context.Context, refreshToken string) (Credential, error)

// Store holds the current Credential and serialises refreshes. All reads and
// the replace operation are mutually exclusive, and the write lock is held
// across a refresh exchange so concurrent callers observing an expired token
// wait for the first refresh instead of issuing their own. That matters with
// providers that rotate the refresh token on every use: two parallel
// exchanges would invalidate each other.
type Store struct {
	mu      sync.RWMutex
	cred    Credential
	persist Persister
	log     *logger.Logger
}

// NewStore creates a Store seeded with an initial credential (may be nil when
// only interactive login can bootstrap the session). persist is optional;
// when set, every successful replace is written through it.
func NewStore(cred *Credential, persist Persister, log *logger.Logger) *Store {
	if log == nil {
		log, _ = logger.New("info", "text")
	}
	s := &Store{persist: persist, log: log}
	if cred != nil {
		s.cred = *cred
	}
	return s
}

// Credential returns a snapshot of the held credential and whether one is
// present at all.
func (s *Store) Credential() (Credential, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cred, s.cred.RefreshToken != ""
}

// Replace atomically swaps the held credential and writes it through the
// persister. A persist failure is logged and otherwise ignored: the session
// keeps working from memory.
func (s *Store) Replace(cred Credential) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaceLocked(cred)
}

func (s *Store) replaceLocked(cred Credential) {
	s.cred = cred
	if s.persist == nil {
		return
	}
	if err := s.persist.Save(cred); err != nil {
		s.log.Warn("failed to persist refreshed tokens", "error", err)
	}
}

// AccessToken returns an access token that is valid now, refreshing via the
// supplied RefreshFunc when the stored one is expired or absent. The refresh
// runs under the write lock with a double-check after acquisition, so at most
// one exchange happens per expiry regardless of concurrency. A refresh
// failure propagates unchanged and leaves the stored credential untouched.
func (s *Store) AccessToken(ctx context.Context, refresh RefreshFunc) (string, error) {
	s.mu.RLock()
	if s.cred.Valid(time.Now()) {
		token := s.cred.AccessToken
		s.mu.RUnlock()
		return token, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another caller may have refreshed while we waited for the lock.
	if s.cred.Valid(time.Now()) {
		return s.cred.AccessToken, nil
	}

	return s.refreshLocked(ctx, refresh)
}

// ForceRefresh renews the credential after the API rejected rejectedToken.
// If another caller already rotated that token, the exchange is skipped and
// the current token returned instead.
func (s *Store) ForceRefresh(ctx context.Context, refresh RefreshFunc, rejectedToken string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cred.AccessToken != rejectedToken && s.cred.Valid(time.Now()) {
		return s.cred.AccessToken, nil
	}

	return s.refreshLocked(ctx, refresh)
}

func (s *Store) refreshLocked(ctx context.Context, refresh RefreshFunc) (string, error) {
	if s.cred.RefreshToken == "" {
		return "", &AuthenticationError{Message: "no refresh token available, user must authenticate first"}
	}

	cred, err := refresh(ctx, s.cred.RefreshToken)
	if err != nil {
		return "", err
	}

	s.replaceLocked(cred)
	return cred.AccessToken, nil
}
