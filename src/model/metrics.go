package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DashboardMetrics is a point-in-time snapshot from GET /dashboard-metrics/.
// It is replaced as a whole on every poll, never merged field by field.
type DashboardMetrics struct {
	ActiveGroupCount     int              `json:"active_group_count"`
	PoolUsage            string           `json:"pool_usage"`
	QueuedSignalCount    int              `json:"queued_signal_count"`
	TotalPnlUsd          decimal.Decimal  `json:"total_pnl_usd"`
	TotalPnlPercent      *decimal.Decimal `json:"total_pnl_percent,omitempty"`
	LastWebhookTimestamp *time.Time       `json:"last_webhook_timestamp,omitempty"`
	EngineStatus         string           `json:"engine_status"`
	RiskEngineStatus     string           `json:"risk_engine_status"`
	Alerts               []string         `json:"alerts"`
}
