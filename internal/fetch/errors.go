package fetch

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout is returned when the provider does not answer within
	// the client's deadline.
	ErrTimeout = errors.New("weather provider request timed out")

	// ErrMalformedResponse is returned when a 200 response is missing
	// the current-temperature field.
	ErrMalformedResponse = errors.New("weather provider response missing main.temp")

	// ErrNoAPIKey is returned when the client was built without an API key.
	ErrNoAPIKey = errors.New("openweather api key is not configured")
)

// APIError is a non-200 answer from the provider. Message carries the
// provider's own `message` field when the body contained one.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("weather provider returned status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("weather provider returned status %d", e.Status)
}

// NetworkError is a transport-level failure: DNS, connection refused,
// circuit open, or any other error before an HTTP status was received.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("weather provider unreachable: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }
