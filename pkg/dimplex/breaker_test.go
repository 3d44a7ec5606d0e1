package dimplex_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dimplex-community/dimplex-go/pkg/dimplex"
	"github.com/dimplex-community/dimplex-go/pkg/dimplex/mocks"
)

// TestCircuitBreakerStartsClosed tests that circuit breaker starts in closed state
func TestCircuitBreakerStartsClosed(t *testing.T) {
	t.Parallel()

	mockAPI := &mocks.MockAPI{}
	cb := dimplex.NewAPIWithCircuitBreaker(mockAPI, dimplex.CircuitBreakerConfig{
		MaxConsecutiveFailures: 3,
		Timeout:                10 * time.Millisecond,
	})

	reporter, ok := cb.(dimplex.StateReporter)
	require.True(t, ok)
	assert.Equal(t, dimplex.CircuitClosed, reporter.State())
}

// TestCircuitBreakerOpensOnFailures tests circuit breaker opens after consecutive failures
func TestCircuitBreakerOpensOnFailures(t *testing.T) {
	t.Parallel()

	mockAPI := &mocks.MockAPI{}
	mockAPI.On("GetHubs", mock.Anything).Return(nil, fmt.Errorf("API error"))

	cb := dimplex.NewAPIWithCircuitBreaker(mockAPI, dimplex.CircuitBreakerConfig{
		MaxConsecutiveFailures: 2,
		Timeout:                100 * time.Millisecond,
	})

	ctx := context.Background()

	// First failure
	_, err := cb.GetHubs(ctx)
	require.Error(t, err)

	// Second failure - should open
	_, err = cb.GetHubs(ctx)
	require.Error(t, err)

	// Next call should fail immediately with ErrOpenState
	_, err = cb.GetHubs(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker is open")
}

// TestCircuitBreakerRecovery tests circuit breaker recovers after timeout
func TestCircuitBreakerRecovery(t *testing.T) {
	t.Parallel()

	mockAPI := &mocks.MockAPI{}

	// First 2 calls fail, subsequent calls succeed
	mockAPI.On("GetHubs", mock.Anything).Return(nil, fmt.Errorf("API error")).Twice()
	mockAPI.On("GetHubs", mock.Anything).Return([]dimplex.Hub{{HubID: "hub-1"}}, nil)

	cb := dimplex.NewAPIWithCircuitBreaker(mockAPI, dimplex.CircuitBreakerConfig{
		MaxConsecutiveFailures: 2,
		Timeout:                50 * time.Millisecond,
	})

	ctx := context.Background()

	// Cause failures to open circuit
	_, _ = cb.GetHubs(ctx)
	_, _ = cb.GetHubs(ctx)

	reporter, ok := cb.(dimplex.StateReporter)
	require.True(t, ok)
	assert.Equal(t, dimplex.CircuitOpen, reporter.State())

	// Wait for half-open timeout
	time.Sleep(150 * time.Millisecond)

	// Next call should test recovery
	_, err := cb.GetHubs(ctx)
	require.NoError(t, err)

	// Should be closed after success
	assert.Equal(t, dimplex.CircuitClosed, reporter.State())
}

// TestCircuitBreakerSuccessResetsCount tests that successful calls reset the error count
func TestCircuitBreakerSuccessResetsCount(t *testing.T) {
	t.Parallel()

	mockAPI := &mocks.MockAPI{}

	// Mix of success and failures
	mockAPI.On("GetHubs", mock.Anything).Return(nil, fmt.Errorf("error")).Once()
	mockAPI.On("GetHubs", mock.Anything).Return([]dimplex.Hub{}, nil).Once()
	mockAPI.On("GetHubs", mock.Anything).Return(nil, fmt.Errorf("error")).Once()
	mockAPI.On("GetHubs", mock.Anything).Return(nil, fmt.Errorf("error")).Once()

	cb := dimplex.NewAPIWithCircuitBreaker(mockAPI, dimplex.CircuitBreakerConfig{
		MaxConsecutiveFailures: 3,
		Timeout:                100 * time.Millisecond,
	})

	ctx := context.Background()

	// Failure, success, then 2 failures - shouldn't open yet because count reset on success
	_, _ = cb.GetHubs(ctx)
	_, _ = cb.GetHubs(ctx)
	_, _ = cb.GetHubs(ctx)
	_, _ = cb.GetHubs(ctx)

	reporter, ok := cb.(dimplex.StateReporter)
	require.True(t, ok)
	assert.Equal(t, dimplex.CircuitClosed, reporter.State())
}

// TestCircuitBreakerAllMethods tests circuit breaker protects all API methods
func TestCircuitBreakerAllMethods(t *testing.T) {
	t.Parallel()

	mockAPI := &mocks.MockAPI{}
	mockAPI.On("GetHubs", mock.Anything).Return(nil, fmt.Errorf("error"))

	cb := dimplex.NewAPIWithCircuitBreaker(mockAPI, dimplex.CircuitBreakerConfig{
		MaxConsecutiveFailures: 1,
		Timeout:                100 * time.Millisecond,
	})

	ctx := context.Background()

	// Fail one method
	_, err := cb.GetHubs(ctx)
	require.Error(t, err)

	// Circuit should be open for all methods
	_, err = cb.GetHubZones(ctx, "hub-1")
	assert.Error(t, err)

	_, err = cb.GetUserContext(ctx)
	assert.Error(t, err)

	err = cb.SetEcoStart(ctx, "hub-1", []string{"app-1"}, true)
	assert.Error(t, err)

	err = cb.SetTimerMode(ctx, "hub-1", "app-1", dimplex.TimerModeOff)
	assert.Error(t, err)
}

// TestCircuitBreakerPassesResultsThrough tests that successful results come back intact
func TestCircuitBreakerPassesResultsThrough(t *testing.T) {
	t.Parallel()

	mockAPI := &mocks.MockAPI{}
	mockAPI.ExpectGetHubs([]dimplex.Hub{{HubID: "hub-1", Name: "Home"}})
	mockAPI.On("GetZone", mock.Anything, "hub-1", "zone-1").Return(&dimplex.Zone{ZoneID: "zone-1", HubID: "hub-1"}, nil)
	mockAPI.On("SetApplianceMode", mock.Anything, "hub-1", []string{"app-1"}, mock.Anything).Return(nil)

	cb := dimplex.NewAPIWithCircuitBreaker(mockAPI, dimplex.DefaultCircuitBreakerConfig())
	ctx := context.Background()

	hubs, err := cb.GetHubs(ctx)
	require.NoError(t, err)
	require.Len(t, hubs, 1)
	assert.Equal(t, "Home", hubs[0].Name)

	zone, err := cb.GetZone(ctx, "hub-1", "zone-1")
	require.NoError(t, err)
	assert.Equal(t, "zone-1", zone.ZoneID)

	err = cb.SetApplianceMode(ctx, "hub-1", []string{"app-1"}, dimplex.NewApplianceModeSettings(dimplex.ApplianceModeBoost, 1, 25.0))
	require.NoError(t, err)

	mockAPI.AssertExpectations(t)
}

// TestCircuitBreakerDefaultConfig tests default configuration
func TestCircuitBreakerDefaultConfig(t *testing.T) {
	t.Parallel()

	config := dimplex.DefaultCircuitBreakerConfig()
	assert.Equal(t, uint32(5), config.MaxConsecutiveFailures)
	assert.Equal(t, 30*time.Second, config.Timeout)
}
