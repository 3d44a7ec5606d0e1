package dimplex

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
)

// CircuitBreakerConfig configures the circuit breaker behavior
type CircuitBreakerConfig struct {
	// MaxConsecutiveFailures is the number of consecutive failures before opening
	MaxConsecutiveFailures uint32
	// Timeout is how long the circuit breaker stays open before trying half-open
	Timeout time.Duration
}

// DefaultCircuitBreakerConfig returns sensible defaults
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		MaxConsecutiveFailures: 5,
		Timeout:                30 * time.Second,
	}
}

// circuitBreakerAPI wraps API with circuit breaker protection
type circuitBreakerAPI struct {
	api     API
	breaker *gobreaker.CircuitBreaker
	timeout time.Duration
}

var _ StateReporter = (*circuitBreakerAPI)(nil)

// CircuitBreakerState represents the circuit breaker state
type CircuitBreakerState int

const (
	CircuitClosed CircuitBreakerState = iota
	CircuitOpen
	CircuitHalfOpen
)

// StateReporter reports the current circuit breaker state. The API returned
// by NewAPIWithCircuitBreaker implements it, so consumers can observe the
// breaker without depending on the wrapper type.
type StateReporter interface {
	State() CircuitBreakerState
}

// NewAPIWithCircuitBreaker wraps an API with circuit breaker protection.
// Long-running consumers can use it to stop hammering the vendor API while
// it is down.
func NewAPIWithCircuitBreaker(api API, config CircuitBreakerConfig) API {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "DimplexAPI",
		MaxRequests: 1,
		Interval:    config.Timeout,
		Timeout:     2 * config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.MaxConsecutiveFailures
		},
	})

	return &circuitBreakerAPI{
		api:     api,
		breaker: cb,
		timeout: config.Timeout,
	}
}

// GetHubs implements API.GetHubs with circuit breaker protection
func (cb *circuitBreakerAPI) GetHubs(ctx context.Context) ([]Hub, error) {
	result, err := cb.breaker.Execute(func() (interface{}, error) {
		return cb.api.GetHubs(ctx)
	})
	if err != nil {
		return nil, cb.wrapError(err)
	}
	return result.([]Hub), nil
}

// GetHubZones implements API.GetHubZones with circuit breaker protection
func (cb *circuitBreakerAPI) GetHubZones(ctx context.Context, hubID string) ([]Zone, error) {
	result, err := cb.breaker.Execute(func() (interface{}, error) {
		return cb.api.GetHubZones(ctx, hubID)
	})
	if err != nil {
		return nil, cb.wrapError(err)
	}
	return result.([]Zone), nil
}

// GetZone implements API.GetZone with circuit breaker protection
func (cb *circuitBreakerAPI) GetZone(ctx context.Context, hubID, zoneID string) (*Zone, error) {
	result, err := cb.breaker.Execute(func() (interface{}, error) {
		return cb.api.GetZone(ctx, hubID, zoneID)
	})
	if err != nil {
		return nil, cb.wrapError(err)
	}
	return result.(*Zone), nil
}

// GetUserContext implements API.GetUserContext with circuit breaker protection
func (cb *circuitBreakerAPI) GetUserContext(ctx context.Context) (*UserContext, error) {
	result, err := cb.breaker.Execute(func() (interface{}, error) {
		return cb.api.GetUserContext(ctx)
	})
	if err != nil {
		return nil, cb.wrapError(err)
	}
	return result.(*UserContext), nil
}

// GetApplianceOverview implements API.GetApplianceOverview with circuit breaker protection
func (cb *circuitBreakerAPI) GetApplianceOverview(ctx context.Context, hubID string, applianceIDs []string) ([]ApplianceStatus, error) {
	result, err := cb.breaker.Execute(func() (interface{}, error) {
		return cb.api.GetApplianceOverview(ctx, hubID, applianceIDs)
	})
	if err != nil {
		return nil, cb.wrapError(err)
	}
	return result.([]ApplianceStatus), nil
}

// GetApplianceFeatures implements API.GetApplianceFeatures with circuit breaker protection
func (cb *circuitBreakerAPI) GetApplianceFeatures(ctx context.Context, hubID, applianceID string) (*TimerModeSettings, error) {
	result, err := cb.breaker.Execute(func() (interface{}, error) {
		return cb.api.GetApplianceFeatures(ctx, hubID, applianceID)
	})
	if err != nil {
		return nil, cb.wrapError(err)
	}
	return result.(*TimerModeSettings), nil
}

// SetTimerMode implements API.SetTimerMode with circuit breaker protection
func (cb *circuitBreakerAPI) SetTimerMode(ctx context.Context, hubID, applianceID string, mode int) error {
	_, err := cb.breaker.Execute(func() (interface{}, error) {
		return nil, cb.api.SetTimerMode(ctx, hubID, applianceID, mode)
	})
	if err != nil {
		return cb.wrapError(err)
	}
	return nil
}

// SetTimerPeriods implements API.SetTimerPeriods with circuit breaker protection
func (cb *circuitBreakerAPI) SetTimerPeriods(ctx context.Context, hubID, applianceID string, mode int, periods []TimerPeriod) error {
	_, err := cb.breaker.Execute(func() (interface{}, error) {
		return nil, cb.api.SetTimerPeriods(ctx, hubID, applianceID, mode, periods)
	})
	if err != nil {
		return cb.wrapError(err)
	}
	return nil
}

// SetApplianceMode implements API.SetApplianceMode with circuit breaker protection
func (cb *circuitBreakerAPI) SetApplianceMode(ctx context.Context, hubID string, applianceIDs []string, settings ApplianceModeSettings) error {
	_, err := cb.breaker.Execute(func() (interface{}, error) {
		return nil, cb.api.SetApplianceMode(ctx, hubID, applianceIDs, settings)
	})
	if err != nil {
		return cb.wrapError(err)
	}
	return nil
}

// SetEcoStart implements API.SetEcoStart with circuit breaker protection
func (cb *circuitBreakerAPI) SetEcoStart(ctx context.Context, hubID string, applianceIDs []string, enable bool) error {
	_, err := cb.breaker.Execute(func() (interface{}, error) {
		return nil, cb.api.SetEcoStart(ctx, hubID, applianceIDs, enable)
	})
	if err != nil {
		return cb.wrapError(err)
	}
	return nil
}

// SetOpenWindowDetection implements API.SetOpenWindowDetection with circuit breaker protection
func (cb *circuitBreakerAPI) SetOpenWindowDetection(ctx context.Context, hubID string, applianceIDs []string, enable bool) error {
	_, err := cb.breaker.Execute(func() (interface{}, error) {
		return nil, cb.api.SetOpenWindowDetection(ctx, hubID, applianceIDs, enable)
	})
	if err != nil {
		return cb.wrapError(err)
	}
	return nil
}

// State returns the current circuit breaker state
func (cb *circuitBreakerAPI) State() CircuitBreakerState {
	switch cb.breaker.State() {
	case gobreaker.StateClosed:
		return CircuitClosed
	case gobreaker.StateOpen:
		return CircuitOpen
	case gobreaker.StateHalfOpen:
		return CircuitHalfOpen
	default:
		return CircuitClosed
	}
}

// wrapError converts circuit breaker errors to user-friendly messages
func (cb *circuitBreakerAPI) wrapError(err error) error {
	if err == gobreaker.ErrOpenState {
		return fmt.Errorf("circuit breaker is open: API is temporarily unavailable (will retry after %v)", cb.timeout)
	}
	if err == gobreaker.ErrTooManyRequests {
		return fmt.Errorf("circuit breaker is half-open: testing API recovery")
	}
	return err
}
