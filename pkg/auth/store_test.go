package auth

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCredential(token string) *Credential {
	return &Credential{
		AccessToken:  token,
		RefreshToken: "refresh-" + token,
		ExpiresAt:    time.Now().Add(time.Hour),
	}
}

func expiredCredential(token string) *Credential {
	return &Credential{
		AccessToken:  token,
		RefreshToken: "refresh-" + token,
		ExpiresAt:    time.Now().Add(-time.Second),
	}
}

// countingRefresh returns a RefreshFunc that counts invocations and hands out
// sequentially numbered credentials.
func countingRefresh(count *int32) RefreshFunc {
	return func(ctx context.Context, refreshToken string) (Credential, error) {
		n := atomic.AddInt32(count, 1)
		return Credential{
			AccessToken:  "access-" + string(rune('0'+n)),
			RefreshToken: "rotated-" + string(rune('0'+n)),
			ExpiresAt:    time.Now().Add(time.Hour),
		}, nil
	}
}

// TestAccessTokenValidNoRefresh tests that a valid token is returned without
// any refresh exchange
func TestAccessTokenValidNoRefresh(t *testing.T) {
	t.Parallel()

	var calls int32
	store := NewStore(validCredential("cached"), nil, nil)

	token, err := store.AccessToken(context.Background(), countingRefresh(&calls))
	require.NoError(t, err)
	assert.Equal(t, "cached", token)
	assert.Equal(t, int32(0), calls)
}

// TestAccessTokenExpiredRefreshesOnce tests that an expired token triggers
// exactly one refresh and the credential is replaced as a unit
func TestAccessTokenExpiredRefreshesOnce(t *testing.T) {
	t.Parallel()

	var calls int32
	store := NewStore(expiredCredential("stale"), nil, nil)

	token, err := store.AccessToken(context.Background(), countingRefresh(&calls))
	require.NoError(t, err)
	assert.Equal(t, "access-1", token)
	assert.Equal(t, int32(1), calls)

	cred, ok := store.Credential()
	require.True(t, ok)
	assert.Equal(t, "access-1", cred.AccessToken)
	assert.Equal(t, "rotated-1", cred.RefreshToken)
}

// TestAccessTokenNoRefreshToken tests that a store without a refresh token
// fails with AuthenticationError instead of calling the refresh func
func TestAccessTokenNoRefreshToken(t *testing.T) {
	t.Parallel()

	var calls int32
	store := NewStore(nil, nil, nil)

	_, err := store.AccessToken(context.Background(), countingRefresh(&calls))
	require.Error(t, err)

	var authErr *AuthenticationError
	assert.ErrorAs(t, err, &authErr)
	assert.Equal(t, int32(0), calls)
}

// TestAccessTokenRefreshFailurePropagates tests that a failed refresh leaves
// the stored credential untouched
func TestAccessTokenRefreshFailurePropagates(t *testing.T) {
	t.Parallel()

	refreshErr := &AuthenticationError{Message: "refresh token revoked"}
	store := NewStore(expiredCredential("stale"), nil, nil)

	_, err := store.AccessToken(context.Background(), func(ctx context.Context, refreshToken string) (Credential, error) {
		return Credential{}, refreshErr
	})
	require.Error(t, err)

	var authErr *AuthenticationError
	require.ErrorAs(t, err, &authErr)

	cred, _ := store.Credential()
	assert.Equal(t, "stale", cred.AccessToken)
}

// TestConcurrentCallersSingleRefresh tests that two concurrent callers
// observing an expired token produce exactly one refresh exchange
func TestConcurrentCallersSingleRefresh(t *testing.T) {
	t.Parallel()

	var calls int32
	slowRefresh := func(ctx context.Context, refreshToken string) (Credential, error) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(50 * time.Millisecond)
		return Credential{
			AccessToken:  "fresh",
			RefreshToken: "rotated",
			ExpiresAt:    time.Now().Add(time.Hour),
		}, nil
	}

	store := NewStore(expiredCredential("stale"), nil, nil)

	const workers = 8
	var wg sync.WaitGroup
	tokens := make([]string, workers)
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = store.AccessToken(context.Background(), slowRefresh)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls, "concurrent callers must share one refresh")
	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "fresh", tokens[i])
	}
}

// TestAccessTokenRefreshCancelled tests that a cancelled refresh discards its
// result, leaving the stored credential usable for a later attempt
func TestAccessTokenRefreshCancelled(t *testing.T) {
	t.Parallel()

	store := NewStore(expiredCredential("stale"), nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.AccessToken(ctx, func(ctx context.Context, refreshToken string) (Credential, error) {
		if err := ctx.Err(); err != nil {
			return Credential{}, &AuthenticationError{Message: "token endpoint unreachable", Cause: err}
		}
		return *validCredential("unexpected"), nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	cred, ok := store.Credential()
	require.True(t, ok)
	assert.Equal(t, "stale", cred.AccessToken)
	assert.Equal(t, "refresh-stale", cred.RefreshToken)

	// The session recovers once a refresh is allowed to complete.
	var calls int32
	token, err := store.AccessToken(context.Background(), countingRefresh(&calls))
	require.NoError(t, err)
	assert.Equal(t, "access-1", token)
	assert.Equal(t, int32(1), calls)
}

// TestForceRefreshSkipsWhenAlreadyRotated tests that a forced refresh after a
// 401 reuses the credential another caller already rotated
func TestForceRefreshSkipsWhenAlreadyRotated(t *testing.T) {
	t.Parallel()

	var calls int32
	store := NewStore(validCredential("current"), nil, nil)

	// The rejected token is not the one the store holds anymore, and the
	// held one is still valid, so no exchange should happen.
	token, err := store.ForceRefresh(context.Background(), countingRefresh(&calls), "rejected-old")
	require.NoError(t, err)
	assert.Equal(t, "current", token)
	assert.Equal(t, int32(0), calls)
}

// TestForceRefreshRefreshesRejectedToken tests that a forced refresh runs the
// exchange when the rejected token is the stored one
func TestForceRefreshRefreshesRejectedToken(t *testing.T) {
	t.Parallel()

	var calls int32
	store := NewStore(validCredential("current"), nil, nil)

	token, err := store.ForceRefresh(context.Background(), countingRefresh(&calls), "current")
	require.NoError(t, err)
	assert.Equal(t, "access-1", token)
	assert.Equal(t, int32(1), calls)
}

// TestReplacePersists tests that replacing the credential writes it through
// the persister
type recordingPersister struct {
	mu    sync.Mutex
	saved []Credential
	err   error
}

func (p *recordingPersister) Load() (*Credential, error) { return nil, nil }

func (p *recordingPersister) Save(cred Credential) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saved = append(p.saved, cred)
	return p.err
}

func TestReplacePersists(t *testing.T) {
	t.Parallel()

	persister := &recordingPersister{}
	store := NewStore(nil, persister, nil)

	cred := *validCredential("new")
	store.Replace(cred)

	require.Len(t, persister.saved, 1)
	assert.Equal(t, cred, persister.saved[0])
}

// TestPersistFailureDoesNotBreakSession tests that a failing persister does
// not prevent the refreshed credential from being used
func TestPersistFailureDoesNotBreakSession(t *testing.T) {
	t.Parallel()

	persister := &recordingPersister{err: errors.New("disk full")}
	store := NewStore(expiredCredential("stale"), persister, nil)

	var calls int32
	token, err := store.AccessToken(context.Background(), countingRefresh(&calls))
	require.NoError(t, err)
	assert.Equal(t, "access-1", token)

	cred, _ := store.Credential()
	assert.Equal(t, "access-1", cred.AccessToken)
}
