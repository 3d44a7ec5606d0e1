package auth

import "fmt"

// AuthenticationError indicates the identity provider rejected a credential
// exchange or refresh, or that a request was still rejected after a forced
// refresh. It is terminal for the current session: the caller must run the
// interactive login again to obtain a new refresh token.
type AuthenticationError struct {
	Message string
	Cause   error
}

func (e *AuthenticationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("authentication failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("authentication failed: %s", e.Message)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Cause
}

// ProtocolError indicates a trusted endpoint returned a response missing
// required fields or with unexpected structure. This points at an API
// contract change rather than a transient condition.
type ProtocolError struct {
	Message string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error: %s", e.Message)
}
