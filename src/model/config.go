package model

import "github.com/shopspring/decimal"

func init() {
	// The engine serializes config numerics as plain JSON numbers. Quoted
	// decimals would break the exact round-trip of GET /config/ -> POST /config/.
	decimal.MarshalJSONWithoutQuotes = true
}

type ExchangeConfig struct {
	Name     string `json:"name"`
	APIKeyID *uint  `json:"api_key_id,omitempty"`
	Testnet  bool   `json:"testnet"`
}

type ExecutionPoolConfig struct {
	MaxOpenGroups int `json:"max_open_groups"`
}

// DCALegConfig describes one planned incremental entry. Gaps and targets are
// fractional values (0.015 means 1.5%); the forms layer owns the x100 display
// conversion.
type DCALegConfig struct {
	PriceGap      decimal.Decimal `json:"price_gap"`
	CapitalWeight decimal.Decimal `json:"capital_weight"`
	TPTarget      decimal.Decimal `json:"tp_target"`
}

type GridStrategyConfig struct {
	DCAConfig []DCALegConfig `json:"dca_config"`
}

type RiskManagementConfig struct {
	Enabled             bool            `json:"enabled"`
	ActivationThreshold decimal.Decimal `json:"activation_threshold"`
	MaxLossPerTrade     decimal.Decimal `json:"max_loss_per_trade"`
}

type WebhookConfig struct {
	Secret string `json:"secret"`
}

// EngineConfig is the single per-account configuration document. It is always
// fetched and submitted as a whole, there is no partial PATCH on /config/.
type EngineConfig struct {
	Exchange       ExchangeConfig       `json:"exchange"`
	ExecutionPool  ExecutionPoolConfig  `json:"execution_pool"`
	GridStrategy   GridStrategyConfig   `json:"grid_strategy"`
	RiskManagement RiskManagementConfig `json:"risk_management"`
	Webhook        WebhookConfig        `json:"webhook"`
}

// Clone returns a deep copy. The forms layer edits a private mirror and must
// never alias the slice backing the caller's document.
func (c EngineConfig) Clone() EngineConfig {
	out := c
	if c.GridStrategy.DCAConfig != nil {
		out.GridStrategy.DCAConfig = make([]DCALegConfig, len(c.GridStrategy.DCAConfig))
		copy(out.GridStrategy.DCAConfig, c.GridStrategy.DCAConfig)
	}
	if c.Exchange.APIKeyID != nil {
		id := *c.Exchange.APIKeyID
		out.Exchange.APIKeyID = &id
	}
	return out
}

// DefaultEngineConfig mirrors the engine's own seed grid: five legs, equal
// capital weights, widening entry gaps.
func DefaultEngineConfig() EngineConfig {
	leg := func(gap, weight, tp string) DCALegConfig {
		return DCALegConfig{
			PriceGap:      decimal.RequireFromString(gap),
			CapitalWeight: decimal.RequireFromString(weight),
			TPTarget:      decimal.RequireFromString(tp),
		}
	}
	return EngineConfig{
		Exchange: ExchangeConfig{
			Name:    "binance",
			Testnet: true,
		},
		ExecutionPool: ExecutionPoolConfig{
			MaxOpenGroups: 10,
		},
		GridStrategy: GridStrategyConfig{
			DCAConfig: []DCALegConfig{
				leg("0", "0.2", "0.01"),
				leg("-0.005", "0.2", "0.005"),
				leg("-0.01", "0.2", "0.02"),
				leg("-0.015", "0.2", "0.015"),
				leg("-0.02", "0.2", "0.01"),
			},
		},
		RiskManagement: RiskManagementConfig{
			Enabled:             false,
			ActivationThreshold: decimal.RequireFromString("0.05"),
			MaxLossPerTrade:     decimal.RequireFromString("0.02"),
		},
	}
}
