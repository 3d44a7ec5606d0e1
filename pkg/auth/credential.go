package auth

import (
	"time"
)

// expiryMargin is subtracted from the stored expiry when checking validity,
// so a token is never presented moments before the provider rejects it.
const expiryMargin = 60 * time.Second

// Credential holds an access/refresh token pair issued by the identity
// provider. ExpiresAt is absolute, derived from the issuing response's
// expires_in at capture time. The JSON tags match the on-disk token file.
type Credential struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Valid reports whether the credential can still be presented at the given
// instant, leaving the safety margin before the real expiry.
func (c Credential) Valid(now time.Time) bool {
	return c.AccessToken != "" && now.Before(c.ExpiresAt.Add(-expiryMargin))
}
