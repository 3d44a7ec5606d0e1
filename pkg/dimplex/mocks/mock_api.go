// Package mocks provides test doubles for the dimplex package.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dimplex-community/dimplex-go/pkg/dimplex"
)

// MockAPI is a mock implementation of the dimplex.API interface
type MockAPI struct {
	mock.Mock
}

// GetHubs implements API.GetHubs
func (m *MockAPI) GetHubs(ctx context.Context) ([]dimplex.Hub, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dimplex.Hub), args.Error(1)
}

// GetHubZones implements API.GetHubZones
func (m *MockAPI) GetHubZones(ctx context.Context, hubID string) ([]dimplex.Zone, error) {
	args := m.Called(ctx, hubID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dimplex.Zone), args.Error(1)
}

// GetZone implements API.GetZone
func (m *MockAPI) GetZone(ctx context.Context, hubID, zoneID string) (*dimplex.Zone, error) {
	args := m.Called(ctx, hubID, zoneID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dimplex.Zone), args.Error(1)
}

// GetUserContext implements API.GetUserContext
func (m *MockAPI) GetUserContext(ctx context.Context) (*dimplex.UserContext, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dimplex.UserContext), args.Error(1)
}

// GetApplianceOverview implements API.GetApplianceOverview
func (m *MockAPI) GetApplianceOverview(ctx context.Context, hubID string, applianceIDs []string) ([]dimplex.ApplianceStatus, error) {
	args := m.Called(ctx, hubID, applianceIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dimplex.ApplianceStatus), args.Error(1)
}

// GetApplianceFeatures implements API.GetApplianceFeatures
func (m *MockAPI) GetApplianceFeatures(ctx context.Context, hubID, applianceID string) (*dimplex.TimerModeSettings, error) {
	args := m.Called(ctx, hubID, applianceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dimplex.TimerModeSettings), args.Error(1)
}

// SetTimerMode implements API.SetTimerMode
func (m *MockAPI) SetTimerMode(ctx context.Context, hubID, applianceID string, mode int) error {
	args := m.Called(ctx, hubID, applianceID, mode)
	return args.Error(0)
}

// SetTimerPeriods implements API.SetTimerPeriods
func (m *MockAPI) SetTimerPeriods(ctx context.Context, hubID, applianceID string, mode int, periods []dimplex.TimerPeriod) error {
	args := m.Called(ctx, hubID, applianceID, mode, periods)
	return args.Error(0)
}

// SetApplianceMode implements API.SetApplianceMode
func (m *MockAPI) SetApplianceMode(ctx context.Context, hubID string, applianceIDs []string, settings dimplex.ApplianceModeSettings) error {
	args := m.Called(ctx, hubID, applianceIDs, settings)
	return args.Error(0)
}

// SetEcoStart implements API.SetEcoStart
func (m *MockAPI) SetEcoStart(ctx context.Context, hubID string, applianceIDs []string, enable bool) error {
	args := m.Called(ctx, hubID, applianceIDs, enable)
	return args.Error(0)
}

// SetOpenWindowDetection implements API.SetOpenWindowDetection
func (m *MockAPI) SetOpenWindowDetection(ctx context.Context, hubID string, applianceIDs []string, enable bool) error {
	args := m.Called(ctx, hubID, applianceIDs, enable)
	return args.Error(0)
}

// ExpectGetHubs sets up expectation for GetHubs to return the given hubs
func (m *MockAPI) ExpectGetHubs(hubs []dimplex.Hub) *MockAPI {
	m.On("GetHubs", mock.Anything).Return(hubs, nil)
	return m
}

// ExpectGetHubsReturnsError sets up expectation for GetHubs to return an error
func (m *MockAPI) ExpectGetHubsReturnsError(err error) *MockAPI {
	m.On("GetHubs", mock.Anything).Return(nil, err)
	return m
}
