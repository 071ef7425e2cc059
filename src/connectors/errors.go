package connectors

import (
	"errors"
	"fmt"
)

// ErrUnauthorized marks a 401 from the engine. The session gate reacts to it
// by clearing the stored credential.
var ErrUnauthorized = errors.New("engine rejected credentials")

// APIError carries the engine's {detail} body for any other non-2xx response.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("engine returned %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("engine returned %d", e.Status)
}

// detailBody is FastAPI's standard error envelope.
type detailBody struct {
	Detail string `json:"detail"`
}
