package dimplex

import "time"

// The vendor API speaks PascalCase JSON; every record keeps the wire names in
// its tags and is decoded as-is, without client-side reshaping.

// Hub is a physical gateway device grouping zones and appliances under one
// account.
type Hub struct {
	HubID        string `json:"HubId"`
	Name         string `json:"HubName"`
	FriendlyName string `json:"FriendlyName,omitempty"`
}

// DisplayName returns the best human-readable name the API provided.
func (h Hub) DisplayName() string {
	if h.Name != "" {
		return h.Name
	}
	if h.FriendlyName != "" {
		return h.FriendlyName
	}
	return "Unknown Hub"
}

func (h Hub) validate() error {
	if h.HubID == "" {
		return &ValidationError{Record: "Hub", Message: "missing HubId"}
	}
	return nil
}

// Zone is a logical heating area containing one or more appliances. HubID is
// an association back to the owning hub, resolved by further API calls.
type Zone struct {
	ZoneID     string      `json:"ZoneId"`
	ZoneName   string      `json:"ZoneName"`
	HubID      string      `json:"HubId"`
	ZoneType   string      `json:"ZoneType"`
	Appliances []Appliance `json:"Appliances"`
}

func (z Zone) validate() error {
	switch {
	case z.ZoneID == "":
		return &ValidationError{Record: "Zone", Message: "missing ZoneId"}
	case z.HubID == "":
		return &ValidationError{Record: "Zone", Message: "missing HubId"}
	}
	for _, a := range z.Appliances {
		if err := a.validate(); err != nil {
			return err
		}
	}
	return nil
}

// Appliance is an individually controllable heating unit within a zone.
// InstallationDate stays a string: the vendor emits timestamps without a zone
// offset, which time.Time refuses to parse.
type Appliance struct {
	ApplianceID      string `json:"ApplianceId"`
	ApplianceType    string `json:"ApplianceType"`
	ApplianceModel   string `json:"ApplianceModel,omitempty"`
	ZoneID           string `json:"ZoneId"`
	FriendlyName     string `json:"FriendlyName"`
	ZoneName         string `json:"ZoneName"`
	Icon             string `json:"Icon,omitempty"`
	IconColor        string `json:"IconColor,omitempty"`
	InstallationDate string `json:"InstallationDate,omitempty"`
	HasConnectivity  *bool  `json:"HasConnectivity,omitempty"`
}

func (a Appliance) validate() error {
	switch {
	case a.ApplianceID == "":
		return &ValidationError{Record: "Appliance", Message: "missing ApplianceId"}
	case a.ZoneID == "":
		return &ValidationError{Record: "Appliance", Message: "missing ZoneId"}
	}
	return nil
}

// ApplianceStatus is a snapshot of an appliance's real-time state as returned
// by GetApplianceOverview. It is valid only at the instant fetched. Optional
// frame fields are pointers so absent and zero can be told apart.
type ApplianceStatus struct {
	HubID                       string   `json:"HubId"`
	ApplianceID                 string   `json:"ApplianceId"`
	ZoneID                      string   `json:"ZoneId"`
	StatusTwo                   *int     `json:"StatusTwo,omitempty"`
	ApplianceModes              *int     `json:"ApplianceModes,omitempty"`
	RoomTemperature             *float64 `json:"RoomTemperature,omitempty"`
	ActiveSetPointTemperature   *int     `json:"ActiveSetPointTemperature,omitempty"`
	NormalTemperature           *float64 `json:"NormalTemperature,omitempty"`
	AwayDateTime                *string  `json:"AwayDateTime,omitempty"`
	AwayTemperature             *float64 `json:"AwayTemperature,omitempty"`
	BoostDuration               *int     `json:"BoostDuration,omitempty"`
	BoostTemperature            *float64 `json:"BoostTemperature,omitempty"`
	OpenWindowEnabled           *bool    `json:"OpenWindowEnabled,omitempty"`
	EcoStartEnabled             *bool    `json:"EcoStartEnabled,omitempty"`
	SetbackEnabled              *bool    `json:"SetbackEnabled,omitempty"`
	SetbackEnabledInStatusFrame *bool    `json:"SetbackEnabledInStatusFrame,omitempty"`
	SetbackTemperature          *float64 `json:"SetbackTemperature,omitempty"`
	ComfortStatus               *bool    `json:"ComfortStatus,omitempty"`
	AvailableHotWater           *float64 `json:"AvailableHotWater,omitempty"`
	LockStatus                  *int     `json:"LockStatus,omitempty"`
	ErrorCode                   *string  `json:"ErrorCode,omitempty"`
	WarningCode                 *string  `json:"WarningCode,omitempty"`
}

func (s ApplianceStatus) validate() error {
	switch {
	case s.HubID == "":
		return &ValidationError{Record: "ApplianceStatus", Message: "missing HubId"}
	case s.ApplianceID == "":
		return &ValidationError{Record: "ApplianceStatus", Message: "missing ApplianceId"}
	case s.ZoneID == "":
		return &ValidationError{Record: "ApplianceStatus", Message: "missing ZoneId"}
	}
	return nil
}

// ApplianceModes values observed from mobile app traffic.
const (
	ApplianceModeBoost = 16
)

// Timer modes inferred from mobile app traffic.
const (
	TimerModeUser            = 0
	TimerModeManual          = 1
	TimerModeFrostProtection = 2
	TimerModeOff             = 3
)

// defaultModeDate is the placeholder the mobile app sends when a mode change
// carries no date.
const defaultModeDate = "0001-01-01T00:00:00"

// ApplianceModeSettings is the command payload for SetApplianceMode (Boost,
// Away and similar overrides). Construct with NewApplianceModeSettings to get
// the same defaults the mobile app sends, and do not mutate after sending.
type ApplianceModeSettings struct {
	ApplianceModes int     `json:"ApplianceModes"`
	Status         int     `json:"Status"`
	Temperature    float64 `json:"Temperature"`
	Time           int     `json:"Time"`
	Date           string  `json:"Date"`
	StatusTwo      int     `json:"StatusTwo"`
	NumberOfDays   int     `json:"NumberOfDays"`
	Frequency      int     `json:"Frequency"`
}

// NewApplianceModeSettings builds a mode command with the vendor defaults for
// the fields callers rarely set.
func NewApplianceModeSettings(mode, status int, temperature float64) ApplianceModeSettings {
	return ApplianceModeSettings{
		ApplianceModes: mode,
		Status:         status,
		Temperature:    temperature,
		Date:           defaultModeDate,
	}
}

// timeOfDayLayout is the wire format for schedule times.
const timeOfDayLayout = "15:04:05"

// TimerPeriod is one scheduled interval of a weekly heating program. Times are
// kept in their wire form ("HH:MM:SS"); use StartClock/EndClock when a parsed
// value is needed.
type TimerPeriod struct {
	DayOfWeek   int     `json:"DayOfWeek"`
	StartTime   string  `json:"StartTime"`
	EndTime     string  `json:"EndTime"`
	Temperature float64 `json:"Temperature"`
}

// StartClock parses the period's start time.
func (p TimerPeriod) StartClock() (time.Time, error) {
	return time.Parse(timeOfDayLayout, p.StartTime)
}

// EndClock parses the period's end time.
func (p TimerPeriod) EndClock() (time.Time, error) {
	return time.Parse(timeOfDayLayout, p.EndTime)
}

// TimerModeSettings is the full schedule object for one appliance: its timer
// mode plus the ordered list of timer periods. The API always exchanges the
// whole object; period order is meaningful and preserved as sent.
type TimerModeSettings struct {
	HubID        string        `json:"HubId"`
	ApplianceID  string        `json:"ApplianceId"`
	TimerMode    int           `json:"TimerMode"`
	TimerPeriods []TimerPeriod `json:"TimerPeriods"`
}

func (t TimerModeSettings) validate() error {
	switch {
	case t.HubID == "":
		return &ValidationError{Record: "TimerModeSettings", Message: "missing HubId"}
	case t.ApplianceID == "":
		return &ValidationError{Record: "TimerModeSettings", Message: "missing ApplianceId"}
	}
	return nil
}

// UserContext is the account profile behind the current session.
type UserContext struct {
	ID           string `json:"Id"`
	EmailAddress string `json:"EmailAddress,omitempty"`
	Name         string `json:"Name,omitempty"`
}

func (u UserContext) validate() error {
	if u.ID == "" {
		return &ValidationError{Record: "UserContext", Message: "missing Id"}
	}
	return nil
}
