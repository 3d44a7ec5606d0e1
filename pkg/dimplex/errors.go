package dimplex

import "fmt"

// APIError is returned when the vendor API rejected a well-formed,
// authenticated request (4xx other than credential rejection). Status and
// body are carried for caller inspection.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.Status, e.Body)
}

// ConnectionError is returned on a network-level failure or a 5xx response.
// The library performs no retries for these; the caller may retry at its own
// discretion.
type ConnectionError struct {
	Message string
	Cause   error
}

func (e *ConnectionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("connection error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("connection error: %s", e.Message)
}

func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// ValidationError is returned when a response body could not be mapped into
// the expected record shape.
type ValidationError struct {
	Record  string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s record: %s", e.Record, e.Message)
}
