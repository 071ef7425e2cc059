package model

// ApiKey is a stored exchange credential as the engine reports it.
// The secret value is write-only and never comes back from the engine.
type ApiKey struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type ApiKeyCreate struct {
	Name string `json:"name"`
	Key  string `json:"key"`
}

type ApiKeyUpdate struct {
	Name string `json:"name"`
}

// NameCheck is the response of GET /api-keys/check-name/.
type NameCheck struct {
	Exists bool `json:"exists"`
}
