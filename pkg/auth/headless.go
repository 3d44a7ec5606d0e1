package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strings"
)

// B2C serves the login page with an embedded SETTINGS object carrying the
// CSRF token and transaction id needed to post credentials.
var (
	settingsPattern = regexp.MustCompile(`(?s)SETTINGS\s*=\s*(\{.*?\});`)
	inputPattern    = regexp.MustCompile(`<input[^>]*>`)
	attrPattern     = regexp.MustCompile(`(\w+)\s*=\s*"([^"]*)"`)
)

const (
	b2cOrigin      = "https://gdhvb2c.b2clogin.com"
	b2cPolicy      = "B2C_1A_DimplexControlSignupSignin"
	maxRedirects   = 10
	defaultB2CBase = b2cOrigin + "/gdhvb2c.onmicrosoft.com/" + b2cPolicy
)

type loginSettings struct {
	Csrf    string `json:"csrf"`
	TransID string `json:"transId"`
}

// HeadlessLogin performs the whole first-time login without a browser:
// it loads the B2C login page, submits the account credentials to the
// SelfAsserted endpoint, chases the redirect chain until the app-scheme
// redirect carrying the authorization code appears, and exchanges that code
// for the first Credential.
//
// The flow scrapes the hosted login page and will break if the tenant's page
// structure changes; ExchangeCode with a manually captured code is the
// fallback.
func (a *Authenticator) HeadlessLogin(ctx context.Context, email, password string) (Credential, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return Credential{}, err
	}

	// The B2C session lives in cookies, so all steps share one jar.
	session := &http.Client{Transport: a.httpClient.Transport, Jar: jar}

	startURL := a.LoginURL()
	a.log.Debug("fetching login page", "url", startURL)

	html, finalURL, err := fetchLoginPage(ctx, session, startURL)
	if err != nil {
		return Credential{}, err
	}

	settings, err := extractSettings(html)
	if err != nil {
		return Credential{}, err
	}

	if err := a.submitCredentials(ctx, session, html, finalURL, settings, email, password); err != nil {
		return Credential{}, err
	}

	a.log.Debug("credentials accepted, chasing redirect chain for authorization code")

	code, err := chaseRedirects(ctx, session, startURL)
	if err != nil {
		return Credential{}, err
	}

	return a.ExchangeCode(ctx, code)
}

func fetchLoginPage(ctx context.Context, session *http.Client, startURL string) (html, finalURL string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, startURL, nil)
	if err != nil {
		return "", "", err
	}
	resp, err := session.Do(req)
	if err != nil {
		return "", "", &AuthenticationError{Message: "failed to fetch login page", Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", &AuthenticationError{Message: "failed to read login page", Cause: err}
	}
	return string(body), resp.Request.URL.String(), nil
}

func extractSettings(html string) (loginSettings, error) {
	match := settingsPattern.FindStringSubmatch(html)
	if match == nil {
		return loginSettings{}, &AuthenticationError{Message: "could not find SETTINGS in login page"}
	}

	var settings loginSettings
	if err := json.Unmarshal([]byte(match[1]), &settings); err != nil {
		return loginSettings{}, &AuthenticationError{Message: "failed to parse SETTINGS JSON from login page", Cause: err}
	}
	if settings.Csrf == "" || settings.TransID == "" {
		return loginSettings{}, &AuthenticationError{Message: "missing csrf or transId in login page SETTINGS"}
	}
	return settings, nil
}

// submitCredentials posts the account email/password to the SelfAsserted
// endpoint, carrying over any hidden form inputs from the login page.
func (a *Authenticator) submitCredentials(ctx context.Context, session *http.Client, html, referer string, settings loginSettings, email, password string) error {
	base := defaultB2CBase
	if idx := strings.Index(referer, "/oauth2/v2.0/authorize"); idx >= 0 {
		base = referer[:idx]
	}

	postURL := fmt.Sprintf("%s/SelfAsserted?%s", base, url.Values{
		"tx": {settings.TransID},
		"p":  {b2cPolicy},
	}.Encode())

	form := hiddenFormInputs(html)
	form.Set("request_type", "RESPONSE")
	form.Set("email", email)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, postURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("X-CSRF-TOKEN", settings.Csrf)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	req.Header.Set("Origin", b2cOrigin)
	req.Header.Set("Referer", referer)

	a.log.Debug("submitting credentials", "url", postURL)

	resp, err := session.Do(req)
	if err != nil {
		return &AuthenticationError{Message: "failed to submit credentials", Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &AuthenticationError{Message: "failed to read login response", Cause: err}
	}

	var result struct {
		Status  string `json:"status"`
		Message string `json:"message"`
		Reason  string `json:"reason"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		preview := string(body)
		if len(preview) > 100 {
			preview = preview[:100]
		}
		return &AuthenticationError{Message: "login response was not valid JSON: " + preview}
	}

	// SelfAsserted reports its outcome in the body, as a string status.
	if result.Status != "200" {
		reason := result.Message
		if reason == "" {
			reason = result.Reason
		}
		if reason == "" {
			reason = "unknown reason"
		}
		return &AuthenticationError{Message: fmt.Sprintf("login failed: %s - %s", result.Status, reason)}
	}
	return nil
}

// hiddenFormInputs collects the name/value pairs of every input on the login
// form so the credential POST does not drop fields B2C expects back.
func hiddenFormInputs(html string) url.Values {
	form := url.Values{}
	for _, tag := range inputPattern.FindAllString(html, -1) {
		var name, value string
		for _, attr := range attrPattern.FindAllStringSubmatch(tag, -1) {
			switch attr[1] {
			case "name":
				name = attr[2]
			case "value":
				value = attr[2]
			}
		}
		if name != "" {
			form.Set(name, value)
		}
	}
	return form
}

// chaseRedirects re-requests the authorize URL with redirects disabled and
// follows Location headers by hand. The final hop redirects to the app's
// custom msal:// scheme, which an HTTP client cannot follow, so the
// authorization code has to be pulled out of the Location value.
func chaseRedirects(ctx context.Context, session *http.Client, startURL string) (string, error) {
	manual := &http.Client{
		Transport: session.Transport,
		Jar:       session.Jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	current := startURL
	for i := 0; i < maxRedirects; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, current, nil)
		if err != nil {
			return "", err
		}
		resp, err := manual.Do(req)
		if err != nil {
			return "", &AuthenticationError{Message: "failed following login redirects", Cause: err}
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		switch resp.StatusCode {
		case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther:
			location := resp.Header.Get("Location")
			if location == "" {
				return "", &AuthenticationError{Message: "login redirect without Location header"}
			}
			if strings.HasPrefix(location, RedirectURI) || strings.Contains(location, "code=") {
				return codeFromRedirect(location)
			}
			current = location
		default:
			return "", &AuthenticationError{
				Message: "failed to obtain auth code after successful login, redirect URI might have changed",
			}
		}
	}
	return "", &AuthenticationError{Message: "too many redirects while waiting for authorization code"}
}

func codeFromRedirect(location string) (string, error) {
	parsed, err := url.Parse(location)
	if err != nil {
		return "", &AuthenticationError{Message: "failed to parse redirect URL", Cause: err}
	}
	code := parsed.Query().Get("code")
	if code == "" {
		return "", &AuthenticationError{Message: "redirect did not carry an authorization code"}
	}
	return code, nil
}
