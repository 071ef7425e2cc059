package model

import (
	"encoding/json"
	"time"
)

type WebhookLogEntry struct {
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
	Status    string          `json:"status"`
}

// WebhookLogPage is the envelope of GET /webhooks/logs/?skip=&limit=.
// Total is the authoritative server-side count, not the page length.
type WebhookLogPage struct {
	Logs  []WebhookLogEntry `json:"logs"`
	Total int               `json:"total"`
}

// SystemLogs is the envelope of GET /logs/.
type SystemLogs struct {
	Logs []string `json:"logs"`
}
