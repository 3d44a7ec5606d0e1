package dimplex

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHubDisplayName tests display name fallbacks
func TestHubDisplayName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		hub  Hub
		want string
	}{
		{name: "hub name preferred", hub: Hub{Name: "Home", FriendlyName: "Friendly"}, want: "Home"},
		{name: "friendly name fallback", hub: Hub{FriendlyName: "Friendly"}, want: "Friendly"},
		{name: "nothing set", hub: Hub{}, want: "Unknown Hub"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.hub.DisplayName())
		})
	}
}

// TestHubDecodesWireNames tests that the vendor's PascalCase field names map
// onto the record
func TestHubDecodesWireNames(t *testing.T) {
	t.Parallel()

	var hub Hub
	require.NoError(t, json.Unmarshal([]byte(`{"HubId":"hub-1","HubName":"Home","FriendlyName":"My Home"}`), &hub))
	assert.Equal(t, "hub-1", hub.HubID)
	assert.Equal(t, "Home", hub.Name)
	assert.Equal(t, "My Home", hub.FriendlyName)
}

// TestRecordValidation tests the required-field checks on decoded records
func TestRecordValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{name: "hub missing id", err: Hub{}.validate(), wantMsg: "missing HubId"},
		{name: "hub ok", err: Hub{HubID: "hub-1"}.validate()},
		{name: "zone missing id", err: Zone{HubID: "hub-1"}.validate(), wantMsg: "missing ZoneId"},
		{name: "zone missing hub", err: Zone{ZoneID: "zone-1"}.validate(), wantMsg: "missing HubId"},
		{
			name:    "zone with bad appliance",
			err:     Zone{ZoneID: "zone-1", HubID: "hub-1", Appliances: []Appliance{{ZoneID: "zone-1"}}}.validate(),
			wantMsg: "missing ApplianceId",
		},
		{name: "appliance missing zone", err: Appliance{ApplianceID: "app-1"}.validate(), wantMsg: "missing ZoneId"},
		{name: "status missing appliance", err: ApplianceStatus{HubID: "hub-1", ZoneID: "zone-1"}.validate(), wantMsg: "missing ApplianceId"},
		{name: "timer settings missing hub", err: TimerModeSettings{ApplianceID: "app-1"}.validate(), wantMsg: "missing HubId"},
		{name: "user context missing id", err: UserContext{}.validate(), wantMsg: "missing Id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.wantMsg == "" {
				assert.NoError(t, tt.err)
				return
			}
			var valErr *ValidationError
			require.ErrorAs(t, tt.err, &valErr)
			assert.Equal(t, tt.wantMsg, valErr.Message)
		})
	}
}

// TestNewApplianceModeSettings tests the vendor defaults on mode commands
func TestNewApplianceModeSettings(t *testing.T) {
	t.Parallel()

	settings := NewApplianceModeSettings(ApplianceModeBoost, 1, 22.5)
	assert.Equal(t, ApplianceModeBoost, settings.ApplianceModes)
	assert.Equal(t, 1, settings.Status)
	assert.Equal(t, 22.5, settings.Temperature)
	assert.Equal(t, "0001-01-01T00:00:00", settings.Date)
	assert.Zero(t, settings.NumberOfDays)
	assert.Zero(t, settings.Frequency)
}

// TestTimerPeriodClocks tests parsing of wire-format schedule times
func TestTimerPeriodClocks(t *testing.T) {
	t.Parallel()

	period := TimerPeriod{DayOfWeek: 1, StartTime: "06:30:00", EndTime: "08:15:30", Temperature: 21.0}

	start, err := period.StartClock()
	require.NoError(t, err)
	assert.Equal(t, 6, start.Hour())
	assert.Equal(t, 30, start.Minute())

	end, err := period.EndClock()
	require.NoError(t, err)
	assert.Equal(t, 8, end.Hour())
	assert.Equal(t, 15, end.Minute())
	assert.Equal(t, 30, end.Second())

	_, err = TimerPeriod{StartTime: "6:30"}.StartClock()
	assert.Error(t, err)
}

// TestApplianceStatusOptionalFields tests that absent optional fields decode
// to nil rather than zero values
func TestApplianceStatusOptionalFields(t *testing.T) {
	t.Parallel()

	var status ApplianceStatus
	payload := `{"HubId":"hub-1","ApplianceId":"app-1","ZoneId":"zone-1","RoomTemperature":0,"EcoStartEnabled":false}`
	require.NoError(t, json.Unmarshal([]byte(payload), &status))

	require.NotNil(t, status.RoomTemperature)
	assert.Zero(t, *status.RoomTemperature)
	require.NotNil(t, status.EcoStartEnabled)
	assert.False(t, *status.EcoStartEnabled)
	assert.Nil(t, status.BoostDuration)
	assert.Nil(t, status.OpenWindowEnabled)
}
