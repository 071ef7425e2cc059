package controller

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"operatorpanel/src/model"
)

type fakeConfigClient struct {
	stored  model.EngineConfig
	getErr  error
	saveErr error

	saves []model.EngineConfig
}

func (f *fakeConfigClient) GetEngineConfig(ctx context.Context) (model.EngineConfig, error) {
	if f.getErr != nil {
		return model.EngineConfig{}, f.getErr
	}
	return f.stored.Clone(), nil
}

func (f *fakeConfigClient) SaveEngineConfig(ctx context.Context, cfg model.EngineConfig) (model.EngineConfig, error) {
	f.saves = append(f.saves, cfg.Clone())
	if f.saveErr != nil {
		return model.EngineConfig{}, f.saveErr
	}
	f.stored = cfg.Clone()
	// the engine normalizes the secret on write
	f.stored.Webhook.Secret = "normalized-" + cfg.Webhook.Secret
	return f.stored.Clone(), nil
}

func TestLoadSeedsDefaultGridWhenEngineUnconfigured(t *testing.T) {
	client := &fakeConfigClient{}
	s := NewSettingsController(client)

	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := s.Form.Legs(); got != 5 {
		t.Fatalf("expected the default five-leg grid, got %d legs", got)
	}
	doc := s.Form.Document()
	if doc.Exchange.Name == "" {
		t.Fatal("exchange not seeded")
	}
	if !doc.GridStrategy.DCAConfig[1].PriceGap.Equal(decimal.RequireFromString("-0.005")) {
		t.Fatalf("unexpected seeded gap: %s", doc.GridStrategy.DCAConfig[1].PriceGap)
	}
}

func TestLoadKeepsStoredDocument(t *testing.T) {
	stored := model.DefaultEngineConfig()
	stored.Exchange.Name = "kraken"
	stored.GridStrategy.DCAConfig = stored.GridStrategy.DCAConfig[:2]
	client := &fakeConfigClient{stored: stored}
	s := NewSettingsController(client)

	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := s.Form.Legs(); got != 2 {
		t.Fatalf("stored grid replaced, got %d legs", got)
	}
	if got := s.Form.Value("exchange.name"); got != "kraken" {
		t.Fatalf("unexpected exchange: %q", got)
	}
}

func TestSaveReloadsCanonicalResponse(t *testing.T) {
	client := &fakeConfigClient{stored: model.DefaultEngineConfig()}
	s := NewSettingsController(client)
	ctx := context.Background()

	if err := s.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := s.Form.Set("webhook.secret", "hunter2hunter2"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Save(ctx); err != nil {
		t.Fatalf("save: %v", err)
	}
	if len(client.saves) != 1 {
		t.Fatalf("expected one save, got %d", len(client.saves))
	}
	if got := s.Form.Value("webhook.secret"); got != "normalized-hunter2hunter2" {
		t.Fatalf("form kept the submitted shape instead of the canonical one: %q", got)
	}
}

func TestSaveAbortsOnLocalValidation(t *testing.T) {
	client := &fakeConfigClient{stored: model.DefaultEngineConfig()}
	s := NewSettingsController(client)
	ctx := context.Background()

	if err := s.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := s.Form.Set("execution_pool.max_open_groups", ""); err == nil {
		t.Fatal("expected the required rule to reject an empty pool size")
	}

	if err := s.Save(ctx); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if len(client.saves) != 0 {
		t.Fatal("validation failure must not reach the network")
	}
}

func TestSaveSurfacesEngineRejection(t *testing.T) {
	client := &fakeConfigClient{
		stored:  model.DefaultEngineConfig(),
		saveErr: assert.AnError,
	}
	s := NewSettingsController(client)
	ctx := context.Background()

	if err := s.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	err := s.Save(ctx)
	assert.ErrorIs(t, err, assert.AnError)
	// the mirror keeps the operator's edits so a retry is possible
	if got := s.Form.Legs(); got != 5 {
		t.Fatalf("mirror reset on failure, got %d legs", got)
	}
}
