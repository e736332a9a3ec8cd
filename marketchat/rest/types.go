package rest

import "fmt"

const (
	// DefaultRPS is the request rate allowed by a new Client.
	DefaultRPS = 5
	// DefaultBurst is the burst size allowed by a new Client.
	DefaultBurst = 10
)

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// APIError is returned for responses with status >= 400.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.Status, e.Message)
}
