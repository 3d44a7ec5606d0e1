package auth

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/dimplex-community/dimplex-go/pkg/logger"
)

// Identity provider contract. The Dimplex Control mobile app authenticates
// against an Azure B2C tenant; these values are fixed by that app.
const (
	AuthBaseURL = "https://gdhvb2c.b2clogin.com/tfp/gdhvb2c.onmicrosoft.com/B2C_1A_DimplexControlSignupSignin/oauth2/v2.0"
	ClientID    = "6c983ca3-506e-4933-8993-0e18e6a24bbd"
	Scope       = "https://gdhvb2c.onmicrosoft.com/Mobile/read offline_access openid profile"
	RedirectURI = "msal6c983ca3-506e-4933-8993-0e18e6a24bbd://auth/"
)

// Authenticator exchanges authorization codes and refresh tokens for
// Credentials at the identity provider's token endpoint.
type Authenticator struct {
	httpClient *http.Client
	oauthCfg   oauth2.Config
	tokenURL   string
	log        *logger.Logger
}

// NewAuthenticator creates an Authenticator talking to the production B2C
// tenant. httpClient may be nil, in which case http.DefaultClient is used.
func NewAuthenticator(httpClient *http.Client, log *logger.Logger) *Authenticator {
	return newAuthenticator(httpClient, AuthBaseURL, log)
}

// NewAuthenticatorWithBaseURL creates an Authenticator against a different
// identity provider base URL. Intended for tests and staging tenants.
func NewAuthenticatorWithBaseURL(httpClient *http.Client, baseURL string, log *logger.Logger) *Authenticator {
	return newAuthenticator(httpClient, baseURL, log)
}

func newAuthenticator(httpClient *http.Client, baseURL string, log *logger.Logger) *Authenticator {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log, _ = logger.New("info", "text")
	}
	return &Authenticator{
		httpClient: httpClient,
		oauthCfg: oauth2.Config{
			ClientID:    ClientID,
			RedirectURL: RedirectURI,
			Scopes:      []string{Scope},
			Endpoint: oauth2.Endpoint{
				AuthURL:  baseURL + "/authorize",
				TokenURL: baseURL + "/token",
			},
		},
		tokenURL: baseURL + "/token",
		log:      log,
	}
}

// LoginURL returns the authorize URL the user must visit to start the
// interactive login. The final redirect targets the mobile app's custom
// scheme, so the authorization code has to be captured from the browser.
func (a *Authenticator) LoginURL() string {
	return a.oauthCfg.AuthCodeURL("", oauth2.SetAuthURLParam("response_mode", "query"))
}

// ExchangeCode converts a browser-flow authorization code into the first
// Credential. One-time, performed out of band during interactive setup.
func (a *Authenticator) ExchangeCode(ctx context.Context, code string) (Credential, error) {
	a.log.Debug("exchanging authorization code for tokens")
	form := url.Values{
		"client_id":    {ClientID},
		"grant_type":   {"authorization_code"},
		"code":         {code},
		"redirect_uri": {RedirectURI},
		"scope":        {Scope},
	}
	return a.exchange(ctx, form)
}

// Refresh exchanges a still-valid refresh token for a new Credential. An
// AuthenticationError here is terminal for the session: the refresh token has
// been revoked or expired and only a new interactive login can recover.
func (a *Authenticator) Refresh(ctx context.Context, refreshToken string) (Credential, error) {
	a.log.Debug("refreshing access token")
	form := url.Values{
		"client_id":     {ClientID},
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"scope":         {Scope},
		"client_info":   {"1"},
	}
	return a.exchange(ctx, form)
}

func (a *Authenticator) exchange(ctx context.Context, form url.Values) (Credential, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return Credential{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return Credential{}, &AuthenticationError{Message: "token endpoint unreachable", Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Credential{}, &AuthenticationError{Message: "reading token endpoint response", Cause: err}
	}

	if resp.StatusCode != http.StatusOK {
		a.log.Error("token exchange rejected", "status", resp.StatusCode, "body", string(body))
		return Credential{}, &AuthenticationError{
			Message: "token endpoint returned " + resp.Status + ": " + string(body),
		}
	}

	return parseTokenResponse(body, time.Now())
}

// tokenResponse is the identity provider's token payload. expires_in is a
// json.Number because B2C has been observed returning it as both a number
// and a string depending on the flow.
type tokenResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresIn    json.Number `json:"expires_in"`
}

// parseTokenResponse validates the token payload and derives the absolute
// expiry. All three fields are required; a payload missing any of them is a
// contract violation, not an authentication failure.
func parseTokenResponse(body []byte, now time.Time) (Credential, error) {
	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return Credential{}, &ProtocolError{Message: "token endpoint returned malformed JSON: " + err.Error()}
	}

	switch {
	case tr.AccessToken == "":
		return Credential{}, &ProtocolError{Message: "token response missing access_token"}
	case tr.RefreshToken == "":
		return Credential{}, &ProtocolError{Message: "token response missing refresh_token"}
	case tr.ExpiresIn == "":
		return Credential{}, &ProtocolError{Message: "token response missing expires_in"}
	}

	seconds, err := tr.ExpiresIn.Int64()
	if err != nil {
		return Credential{}, &ProtocolError{Message: "token response expires_in is not a number: " + err.Error()}
	}

	return Credential{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		ExpiresAt:    now.Add(time.Duration(seconds) * time.Second),
	}, nil
}
