// Package dimplex is a typed client for the Dimplex Control cloud API.
//
// All calls go through a single authenticated transport that keeps the
// session's access token valid: an expired token is refreshed before
// dispatch, and a credential-rejection response triggers exactly one forced
// refresh and replay before the failure is surfaced.
package dimplex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/dimplex-community/dimplex-go/pkg/auth"
	"github.com/dimplex-community/dimplex-go/pkg/logger"
	"github.com/dimplex-community/dimplex-go/pkg/metrics"
)

// BaseURL is the production Dimplex Control API endpoint.
const BaseURL = "https://mobileapi.gdhv-iot.com/api"

// The API only answers requests that identify themselves as the mobile app.
var defaultHeaders = map[string]string{
	"User-Agent":          "Dimplex Control/79810 CFNetwork/3860.300.31 Darwin/25.2.0",
	"app_name":            "DimplexControl",
	"app_version":         "2.21.0",
	"app_device_os":       "iOS",
	"device_version":      "26.2.1",
	"device_manufacturer": "Apple",
	"device_model":        "iPhone18,1",
	"api_version":         "1.0",
	"Accept":              "*/*",
	"Content-Type":        "application/json",
}

// Client issues typed requests against the vendor API through the
// authenticated transport. It is safe for concurrent use; the token store
// serialises refreshes across concurrent calls.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      *auth.Store
	authn      *auth.Authenticator
	metrics    *metrics.ClientMetrics
	log        *logger.Logger
}

// NewClient creates a Client. httpClient may be nil (http.DefaultClient);
// m may be nil to disable instrumentation.
func NewClient(httpClient *http.Client, store *auth.Store, authn *auth.Authenticator, m *metrics.ClientMetrics, log *logger.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log, _ = logger.New("info", "text")
	}
	return &Client{
		baseURL:    BaseURL,
		httpClient: httpClient,
		store:      store,
		authn:      authn,
		metrics:    m,
		log:        log,
	}
}

// IsAuthenticated reports whether the client currently holds a usable
// credential (an unexpired access token or at least a refresh token).
func (c *Client) IsAuthenticated() bool {
	cred, ok := c.store.Credential()
	return ok && cred.Valid(time.Now())
}

// refresh adapts the authenticator for the token store and records the
// outcome.
func (c *Client) refresh(ctx context.Context, refreshToken string) (auth.Credential, error) {
	cred, err := c.authn.Refresh(ctx, refreshToken)
	c.metrics.ObserveRefresh(err)
	return cred, err
}

// request runs the per-call state machine: ensure a valid token, dispatch,
// classify, and on a first-time 401/403 force one refresh and replay once.
// At most two physical HTTP attempts leave this method.
func (c *Client) request(ctx context.Context, method, endpoint string, query url.Values, payload interface{}) ([]byte, error) {
	var reqBody []byte
	if payload != nil {
		var err error
		reqBody, err = json.Marshal(payload)
		if err != nil {
			return nil, err
		}
	}

	log := c.log.WithRequestID(uuid.NewString())

	token, err := c.store.AccessToken(ctx, c.refresh)
	if err != nil {
		// Refresh failed: the original request is never sent.
		return nil, err
	}

	status, body, err := c.attempt(ctx, method, endpoint, query, reqBody, token)
	if err != nil {
		return nil, err
	}

	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		log.Debug("credential rejected, forcing refresh and replaying once", "endpoint", endpoint, "status", status)
		c.metrics.ObserveForcedRefresh()

		token, err = c.store.ForceRefresh(ctx, c.refresh, token)
		if err != nil {
			return nil, err
		}

		status, body, err = c.attempt(ctx, method, endpoint, query, reqBody, token)
		if err != nil {
			return nil, err
		}
		if status == http.StatusUnauthorized || status == http.StatusForbidden {
			return nil, &auth.AuthenticationError{
				Message: fmt.Sprintf("request to %s rejected again after refresh (status %d)", endpoint, status),
			}
		}
	}

	switch {
	case status >= 200 && status < 300:
		return body, nil
	case status >= 500:
		log.Error("API server error", "endpoint", endpoint, "status", status)
		return nil, &ConnectionError{Message: fmt.Sprintf("server error %d on %s", status, endpoint)}
	default:
		log.Error("API request failed", "endpoint", endpoint, "status", status, "body", string(body))
		return nil, &APIError{Status: status, Body: string(body)}
	}
}

// attempt performs exactly one physical HTTP exchange.
func (c *Client) attempt(ctx context.Context, method, endpoint string, query url.Values, body []byte, token string) (int, []byte, error) {
	target := c.baseURL + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return 0, nil, err
	}
	for k, v := range defaultHeaders {
		req.Header.Set(k, v)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveRequest(endpoint, 0, time.Since(start).Seconds())
		return 0, nil, &ConnectionError{Message: "request to " + endpoint + " failed", Cause: err}
	}
	defer resp.Body.Close()

	respBody, readErr := io.ReadAll(resp.Body)
	c.metrics.ObserveRequest(endpoint, resp.StatusCode, time.Since(start).Seconds())
	if readErr != nil {
		return 0, nil, &ConnectionError{Message: "reading response from " + endpoint, Cause: readErr}
	}
	return resp.StatusCode, respBody, nil
}

// GetHubs returns all hubs registered to the account, in server order.
func (c *Client) GetHubs(ctx context.Context) ([]Hub, error) {
	body, err := c.request(ctx, http.MethodGet, "/Hubs/GetUserHubs", nil, nil)
	if err != nil {
		return nil, err
	}

	var hubs []Hub
	if err := json.Unmarshal(body, &hubs); err != nil {
		return nil, &ValidationError{Record: "Hub", Message: err.Error()}
	}
	for _, h := range hubs {
		if err := h.validate(); err != nil {
			return nil, err
		}
	}
	return hubs, nil
}

// GetHubZones returns the zones of a hub together with their appliances, in
// server order.
func (c *Client) GetHubZones(ctx context.Context, hubID string) ([]Zone, error) {
	query := url.Values{"HubId": {hubID}}
	body, err := c.request(ctx, http.MethodGet, "/Zones/GetZonesAndAppliancesForHubId", query, nil)
	if err != nil {
		return nil, err
	}

	var zones []Zone
	if err := json.Unmarshal(body, &zones); err != nil {
		return nil, &ValidationError{Record: "Zone", Message: err.Error()}
	}
	for _, z := range zones {
		if err := z.validate(); err != nil {
			return nil, err
		}
	}
	return zones, nil
}

// GetZone returns the details of a single zone.
func (c *Client) GetZone(ctx context.Context, hubID, zoneID string) (*Zone, error) {
	payload := map[string]string{"HubId": hubID, "ZoneId": zoneID}
	body, err := c.request(ctx, http.MethodPost, "/Zones/GetZone", nil, payload)
	if err != nil {
		return nil, err
	}

	var zone Zone
	if err := json.Unmarshal(body, &zone); err != nil {
		return nil, &ValidationError{Record: "Zone", Message: err.Error()}
	}
	if err := zone.validate(); err != nil {
		return nil, err
	}
	return &zone, nil
}

// GetUserContext returns the account profile behind the current session.
func (c *Client) GetUserContext(ctx context.Context) (*UserContext, error) {
	body, err := c.request(ctx, http.MethodGet, "/Identity/GetUserContext", nil, nil)
	if err != nil {
		return nil, err
	}

	var user UserContext
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, &ValidationError{Record: "UserContext", Message: err.Error()}
	}
	if err := user.validate(); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetApplianceOverview returns a real-time status snapshot for the given
// appliances in a single batch request.
func (c *Client) GetApplianceOverview(ctx context.Context, hubID string, applianceIDs []string) ([]ApplianceStatus, error) {
	payload := map[string]interface{}{"HubId": hubID, "ApplianceIds": applianceIDs}
	body, err := c.request(ctx, http.MethodPost, "/RemoteControl/GetApplianceOverview", nil, payload)
	if err != nil {
		return nil, err
	}

	var statuses []ApplianceStatus
	if err := json.Unmarshal(body, &statuses); err != nil {
		return nil, &ValidationError{Record: "ApplianceStatus", Message: err.Error()}
	}
	for _, s := range statuses {
		if err := s.validate(); err != nil {
			return nil, err
		}
	}
	return statuses, nil
}

// GetApplianceFeatures returns the current timer mode and schedule for an
// appliance.
func (c *Client) GetApplianceFeatures(ctx context.Context, hubID, applianceID string) (*TimerModeSettings, error) {
	// TimerMode is required in the request but ignored when fetching.
	payload := map[string]interface{}{
		"HubId":       hubID,
		"ApplianceId": applianceID,
		"TimerMode":   0,
	}
	body, err := c.request(ctx, http.MethodPost, "/RemoteControl/GetTimerModeDetailsForAppliance", nil, payload)
	if err != nil {
		return nil, err
	}

	var settings TimerModeSettings
	if err := json.Unmarshal(body, &settings); err != nil {
		return nil, &ValidationError{Record: "TimerModeSettings", Message: err.Error()}
	}
	if err := settings.validate(); err != nil {
		return nil, err
	}
	return &settings, nil
}

// SetTimerMode switches an appliance's timer mode. The API requires the full
// TimerModeSettings object, so the current one is fetched first and written
// back with only the mode changed.
func (c *Client) SetTimerMode(ctx context.Context, hubID, applianceID string, mode int) error {
	current, err := c.GetApplianceFeatures(ctx, hubID, applianceID)
	if err != nil {
		return err
	}
	current.TimerMode = mode

	payload := map[string]interface{}{"TimerModeSettings": current}
	_, err = c.request(ctx, http.MethodPost, "/RemoteControl/SetTimerMode", nil, payload)
	return err
}

// SetTimerPeriods replaces an appliance's weekly program with the given
// ordered period list. The periods are sent as a full replacement set; the
// client neither reorders nor validates them against each other.
func (c *Client) SetTimerPeriods(ctx context.Context, hubID, applianceID string, mode int, periods []TimerPeriod) error {
	settings := TimerModeSettings{
		HubID:        hubID,
		ApplianceID:  applianceID,
		TimerMode:    mode,
		TimerPeriods: periods,
	}
	payload := map[string]interface{}{"TimerModeSettings": settings}
	_, err := c.request(ctx, http.MethodPost, "/RemoteControl/SetTimerMode", nil, payload)
	return err
}

// SetApplianceMode applies a mode override (Boost, Away, ...) to all given
// appliances in one batch request.
func (c *Client) SetApplianceMode(ctx context.Context, hubID string, applianceIDs []string, settings ApplianceModeSettings) error {
	payload := map[string]interface{}{
		"Settings":     settings,
		"HubId":        hubID,
		"ApplianceIds": applianceIDs,
	}
	_, err := c.request(ctx, http.MethodPost, "/RemoteControl/SetApplianceMode", nil, payload)
	return err
}

// SetEcoStart enables or disables adaptive pre-heating for the given
// appliances in one batch request.
func (c *Client) SetEcoStart(ctx context.Context, hubID string, applianceIDs []string, enable bool) error {
	payload := map[string]interface{}{
		"Enable":       enable,
		"HubId":        hubID,
		"ApplianceIds": applianceIDs,
	}
	_, err := c.request(ctx, http.MethodPost, "/RemoteControl/SetEcoStart", nil, payload)
	return err
}

// SetOpenWindowDetection enables or disables open window detection for the
// given appliances in one batch request.
func (c *Client) SetOpenWindowDetection(ctx context.Context, hubID string, applianceIDs []string, enable bool) error {
	payload := map[string]interface{}{
		"Enable":       enable,
		"HubId":        hubID,
		"ApplianceIds": applianceIDs,
	}
	_, err := c.request(ctx, http.MethodPost, "/RemoteControl/SetOpenWindowDetection", nil, payload)
	return err
}
