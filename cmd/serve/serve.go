package serve

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"operatorpanel/src/panel"
	"operatorpanel/src/server"
)

// Serve runs the headless panel with the read-only snapshot server in front
// of it. A session must have been persisted by the console first.
type Serve struct{}

func (s *Serve) Start() error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	p, release, err := panel.Bootstrap(ctx)
	if err != nil {
		logrus.WithError(err).Error("failed to bootstrap panel")
		return err
	}
	defer release()

	if !p.Session().Authorized() {
		logrus.Warn("no persisted session, snapshots stay idle until a login happens elsewhere")
	}

	server.StartServer(server.GetConfig().Port, p)
	return nil
}
