package dimplex

import "context"

// API defines the typed surface of the Dimplex Control client. It allows for
// dependency injection and testing with mocks, and is what the circuit
// breaker wrapper decorates.
type API interface {
	// GetHubs retrieves all hubs for the account
	GetHubs(ctx context.Context) ([]Hub, error)

	// GetHubZones retrieves the zones and appliances of a hub
	GetHubZones(ctx context.Context, hubID string) ([]Zone, error)

	// GetZone retrieves a single zone
	GetZone(ctx context.Context, hubID, zoneID string) (*Zone, error)

	// GetUserContext retrieves the account profile
	GetUserContext(ctx context.Context) (*UserContext, error)

	// GetApplianceOverview retrieves real-time status for a set of appliances
	GetApplianceOverview(ctx context.Context, hubID string, applianceIDs []string) ([]ApplianceStatus, error)

	// GetApplianceFeatures retrieves the timer mode and schedule of an appliance
	GetApplianceFeatures(ctx context.Context, hubID, applianceID string) (*TimerModeSettings, error)

	// SetTimerMode switches an appliance's timer mode
	SetTimerMode(ctx context.Context, hubID, applianceID string, mode int) error

	// SetTimerPeriods replaces an appliance's weekly program
	SetTimerPeriods(ctx context.Context, hubID, applianceID string, mode int, periods []TimerPeriod) error

	// SetApplianceMode applies a mode override to a set of appliances
	SetApplianceMode(ctx context.Context, hubID string, applianceIDs []string, settings ApplianceModeSettings) error

	// SetEcoStart toggles adaptive pre-heating for a set of appliances
	SetEcoStart(ctx context.Context, hubID string, applianceIDs []string, enable bool) error

	// SetOpenWindowDetection toggles open window detection for a set of appliances
	SetOpenWindowDetection(ctx context.Context, hubID string, applianceIDs []string, enable bool) error
}

var _ API = (*Client)(nil)
