package controller

import (
	"context"

	logger "github.com/sirupsen/logrus"

	"operatorpanel/src/forms"
	"operatorpanel/src/model"
)

type configClient interface {
	GetEngineConfig(ctx context.Context) (model.EngineConfig, error)
	SaveEngineConfig(ctx context.Context, cfg model.EngineConfig) (model.EngineConfig, error)
}

// SettingsController edits the engine configuration as a whole document.
// Save submits the full mirror and reloads from the engine's canonical
// response rather than trusting the submitted shape.
type SettingsController struct {
	client configClient

	Form *forms.ConfigForm
}

func NewSettingsController(client configClient) *SettingsController {
	return &SettingsController{client: client, Form: forms.NewConfigForm()}
}

// Load replaces the form mirror with the engine's stored document. An engine
// that has never been configured answers with an empty document; the default
// five-leg grid is seeded so the operator edits a working baseline.
func (s *SettingsController) Load(ctx context.Context) error {
	doc, err := s.client.GetEngineConfig(ctx)
	if err != nil {
		logger.WithError(err).Warn("engine config fetch failed")
		return err
	}
	if isEmptyConfig(doc) {
		logger.Info("engine config empty, seeding defaults")
		doc = model.DefaultEngineConfig()
	}
	s.Form.Load(doc)
	return nil
}

func (s *SettingsController) Save(ctx context.Context) error {
	if errs := s.Form.ValidateAll(); errs != nil {
		return ErrValidation
	}

	saved, err := s.client.SaveEngineConfig(ctx, s.Form.Document())
	if err != nil {
		logger.WithError(err).Warn("engine config save rejected")
		return err
	}
	s.Form.Load(saved)
	logger.Info("engine config saved")
	return nil
}

func isEmptyConfig(doc model.EngineConfig) bool {
	return doc.Exchange.Name == "" && len(doc.GridStrategy.DCAConfig) == 0
}
