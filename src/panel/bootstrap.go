package panel

import (
	"context"

	logger "github.com/sirupsen/logrus"

	"operatorpanel/src/connectors"
	"operatorpanel/src/localstore"
	"operatorpanel/src/security"
	"operatorpanel/src/session"
)

// Bootstrap builds a fully wired panel from the environment: credential box,
// local store, session, engine client. A broken local store degrades to a
// memory-only session instead of refusing to start.
func Bootstrap(ctx context.Context) (*Panel, func(), error) {
	box, err := security.NewBox(security.GetConfig().CredentialKey)
	if err != nil {
		return nil, nil, err
	}

	cfg := GetConfig()
	var persist session.Persister
	if err := localstore.InitDB(); err != nil {
		logger.WithError(err).Warn("local store unavailable, session will not survive restarts")
	} else {
		persist = localstore.NewCredentialRepository(box)
		prefs := localstore.NewPreferenceRepository()
		if size, err := prefs.GetInt("log_page_size", cfg.LogPageSize); err == nil {
			cfg.LogPageSize = size
		}
	}

	sess := session.NewStore(persist)
	client := connectors.NewEngineClient("", sess)

	p := New(cfg, sess, client)
	stop := p.Start(ctx)
	return p, stop, nil
}
