package model

import "github.com/shopspring/decimal"

type DCALeg struct {
	ID            uint             `json:"id"`
	PriceGap      decimal.Decimal  `json:"price_gap"`
	CapitalWeight decimal.Decimal  `json:"capital_weight"`
	TPTarget      decimal.Decimal  `json:"tp_target"`
	FillPrice     *decimal.Decimal `json:"fill_price,omitempty"`
	Status        string           `json:"status"`
}

type Pyramid struct {
	ID         uint            `json:"id"`
	EntryPrice decimal.Decimal `json:"entry_price"`
	DCALegs    []DCALeg        `json:"dca_legs"`
}

// PositionGroup aggregates every pyramid open for one pair/timeframe.
// Groups are read-only on the panel side and replaced wholesale each poll.
type PositionGroup struct {
	ID                   uint             `json:"id"`
	Pair                 string           `json:"pair"`
	Timeframe            string           `json:"timeframe"`
	Status               string           `json:"status"`
	AvgEntryPrice        *decimal.Decimal `json:"avg_entry_price,omitempty"`
	UnrealizedPnlPercent *decimal.Decimal `json:"unrealized_pnl_percent,omitempty"`
	UnrealizedPnlUsd     *decimal.Decimal `json:"unrealized_pnl_usd,omitempty"`
	TPMode               string           `json:"tp_mode"`
	Pyramids             []Pyramid        `json:"pyramids"`
}

const (
	GroupStatusPending = "pending"
	GroupStatusActive  = "active"
	GroupStatusClosing = "closing"
	GroupStatusClosed  = "closed"
	GroupStatusError   = "error"
)

const (
	LegStatusPending   = "pending"
	LegStatusFilled    = "filled"
	LegStatusCancelled = "cancelled"
)
