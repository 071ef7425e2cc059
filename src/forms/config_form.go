package forms

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"operatorpanel/src/model"
)

// ConfigForm mirrors the engine configuration document for editing. The
// mirror is private: callers get deep copies in and out, and the grid's
// DCA-leg section grows and shrinks without disturbing sibling legs.
type ConfigForm struct {
	*Form

	docMu sync.Mutex
	doc   model.EngineConfig
}

func NewConfigForm() *ConfigForm {
	cf := &ConfigForm{
		Form: NewForm(),
		doc:  model.DefaultEngineConfig(),
	}
	cf.registerStaticFields()
	cf.rebuildLegFields()
	return cf
}

// Load replaces the whole mirror and clears all dirty/error flags. It is the
// only way server state enters the form, after a fetch or a successful
// submit; there is no field-by-field merging.
func (cf *ConfigForm) Load(doc model.EngineConfig) {
	cf.docMu.Lock()
	cf.doc = doc.Clone()
	cf.docMu.Unlock()

	cf.rebuildLegFields()
	cf.ClearState()
}

// Document returns a deep copy of the current mirror, the exact payload a
// submit would send.
func (cf *ConfigForm) Document() model.EngineConfig {
	cf.docMu.Lock()
	defer cf.docMu.Unlock()
	return cf.doc.Clone()
}

func (cf *ConfigForm) Legs() int {
	cf.docMu.Lock()
	defer cf.docMu.Unlock()
	return len(cf.doc.GridStrategy.DCAConfig)
}

// AddLeg appends an empty DCA leg and registers its fields.
func (cf *ConfigForm) AddLeg() {
	cf.docMu.Lock()
	cf.doc.GridStrategy.DCAConfig = append(cf.doc.GridStrategy.DCAConfig, model.DCALegConfig{})
	cf.docMu.Unlock()
	cf.rebuildLegFields()
}

func (cf *ConfigForm) RemoveLeg(index int) error {
	cf.docMu.Lock()
	legs := cf.doc.GridStrategy.DCAConfig
	if index < 0 || index >= len(legs) {
		cf.docMu.Unlock()
		return fmt.Errorf("no DCA leg at index %d", index)
	}
	cf.doc.GridStrategy.DCAConfig = append(legs[:index], legs[index+1:]...)
	cf.docMu.Unlock()
	cf.rebuildLegFields()
	return nil
}

func (cf *ConfigForm) registerStaticFields() {
	cf.Register("exchange.name", FieldSpec{
		Get: func() string {
			cf.docMu.Lock()
			defer cf.docMu.Unlock()
			return cf.doc.Exchange.Name
		},
		Set: func(raw string) error {
			cf.docMu.Lock()
			defer cf.docMu.Unlock()
			cf.doc.Exchange.Name = strings.TrimSpace(raw)
			return nil
		},
		Rules: []Rule{Required()},
	})

	cf.Register("exchange.testnet", FieldSpec{
		Get: func() string {
			cf.docMu.Lock()
			defer cf.docMu.Unlock()
			return strconv.FormatBool(cf.doc.Exchange.Testnet)
		},
		Set: func(raw string) error {
			v, err := strconv.ParseBool(strings.TrimSpace(raw))
			if err != nil {
				return errors.New("must be true or false")
			}
			cf.docMu.Lock()
			defer cf.docMu.Unlock()
			cf.doc.Exchange.Testnet = v
			return nil
		},
	})

	cf.Register("exchange.api_key_id", FieldSpec{
		Get: func() string {
			cf.docMu.Lock()
			defer cf.docMu.Unlock()
			if cf.doc.Exchange.APIKeyID == nil {
				return ""
			}
			return strconv.FormatUint(uint64(*cf.doc.Exchange.APIKeyID), 10)
		},
		Set: func(raw string) error {
			raw = strings.TrimSpace(raw)
			cf.docMu.Lock()
			defer cf.docMu.Unlock()
			if raw == "" {
				cf.doc.Exchange.APIKeyID = nil
				return nil
			}
			id, err := strconv.ParseUint(raw, 10, 32)
			if err != nil {
				return errors.New("must be an API key id")
			}
			v := uint(id)
			cf.doc.Exchange.APIKeyID = &v
			return nil
		},
	})

	cf.Register("execution_pool.max_open_groups", FieldSpec{
		Get: func() string {
			cf.docMu.Lock()
			defer cf.docMu.Unlock()
			return strconv.Itoa(cf.doc.ExecutionPool.MaxOpenGroups)
		},
		Set: func(raw string) error {
			n, err := strconv.Atoi(strings.TrimSpace(raw))
			if err != nil {
				return errors.New("must be a whole number")
			}
			cf.docMu.Lock()
			defer cf.docMu.Unlock()
			cf.doc.ExecutionPool.MaxOpenGroups = n
			return nil
		},
		Rules: []Rule{Required(), IntRange(1, 1000)},
	})

	cf.Register("risk_management.enabled", FieldSpec{
		Get: func() string {
			cf.docMu.Lock()
			defer cf.docMu.Unlock()
			return strconv.FormatBool(cf.doc.RiskManagement.Enabled)
		},
		Set: func(raw string) error {
			v, err := strconv.ParseBool(strings.TrimSpace(raw))
			if err != nil {
				return errors.New("must be true or false")
			}
			cf.docMu.Lock()
			defer cf.docMu.Unlock()
			cf.doc.RiskManagement.Enabled = v
			return nil
		},
	})

	cf.Register("risk_management.activation_threshold", cf.percentField(
		func(c *model.EngineConfig) *decimal.Decimal { return &c.RiskManagement.ActivationThreshold },
	))
	cf.Register("risk_management.max_loss_per_trade", cf.percentField(
		func(c *model.EngineConfig) *decimal.Decimal { return &c.RiskManagement.MaxLossPerTrade },
	))

	cf.Register("webhook.secret", FieldSpec{
		Get: func() string {
			cf.docMu.Lock()
			defer cf.docMu.Unlock()
			return cf.doc.Webhook.Secret
		},
		Set: func(raw string) error {
			cf.docMu.Lock()
			defer cf.docMu.Unlock()
			cf.doc.Webhook.Secret = strings.TrimSpace(raw)
			return nil
		},
	})
}

const legFieldPrefix = "grid_strategy.dca_config["

// LegFieldName addresses one leaf of one DCA leg, e.g.
// grid_strategy.dca_config[2].price_gap.
func LegFieldName(index int, leaf string) string {
	return fmt.Sprintf("%s%d].%s", legFieldPrefix, index, leaf)
}

func (cf *ConfigForm) rebuildLegFields() {
	cf.DeregisterPrefix(legFieldPrefix)

	cf.docMu.Lock()
	count := len(cf.doc.GridStrategy.DCAConfig)
	cf.docMu.Unlock()

	for i := 0; i < count; i++ {
		index := i
		cf.Register(LegFieldName(index, "price_gap"), cf.percentField(
			func(c *model.EngineConfig) *decimal.Decimal {
				return &c.GridStrategy.DCAConfig[index].PriceGap
			},
		))
		cf.Register(LegFieldName(index, "capital_weight"), cf.percentField(
			func(c *model.EngineConfig) *decimal.Decimal {
				return &c.GridStrategy.DCAConfig[index].CapitalWeight
			},
		))
		cf.Register(LegFieldName(index, "tp_target"), cf.percentField(
			func(c *model.EngineConfig) *decimal.Decimal {
				return &c.GridStrategy.DCAConfig[index].TPTarget
			},
		))
	}
}

// percentField builds the lens for a fractional decimal leaf rendered x100.
func (cf *ConfigForm) percentField(lens func(*model.EngineConfig) *decimal.Decimal) FieldSpec {
	return FieldSpec{
		Get: func() string {
			cf.docMu.Lock()
			defer cf.docMu.Unlock()
			return DisplayPercent(*lens(&cf.doc))
		},
		Set: func(raw string) error {
			v, err := ParsePercent(raw)
			if err != nil {
				return err
			}
			cf.docMu.Lock()
			defer cf.docMu.Unlock()
			*lens(&cf.doc) = v
			return nil
		},
		Rules: []Rule{Required()},
	}
}
