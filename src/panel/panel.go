package panel

import (
	"context"
	"sync"

	logger "github.com/sirupsen/logrus"

	"operatorpanel/src/connectors"
	"operatorpanel/src/controller"
	"operatorpanel/src/model"
	"operatorpanel/src/poll"
	"operatorpanel/src/session"
)

// Panel wires the session, the engine client and every view the dashboard
// shows. Pollers run only while a session exists; login and logout flip them
// without restarting the process.
type Panel struct {
	session *session.Store
	client  *connectors.EngineClient

	Metrics     *poll.Poller[model.DashboardMetrics]
	Positions   *poll.Poller[[]model.PositionGroup]
	WebhookLogs *poll.PagedPoller[model.WebhookLogEntry]
	SystemLogs  *poll.Poller[[]string]

	Keys     *controller.APIKeyController
	Settings *controller.SettingsController

	mu          sync.Mutex
	ctx         context.Context
	running     bool
	stops       []func()
	unsubscribe func()
}

func New(cfg Config, sess *session.Store, client *connectors.EngineClient) *Panel {
	p := &Panel{session: sess, client: client}

	// a 401 anywhere tears the session down, which stops every poller
	client.SetUnauthorizedHook(sess.Logout)

	p.Metrics = poll.NewPoller("metrics", cfg.MetricsInterval, client.DashboardMetrics)
	p.Positions = poll.NewPoller("positions", cfg.PositionsInterval, client.PositionGroups)
	p.SystemLogs = poll.NewPoller("system-logs", cfg.SystemLogInterval, client.SystemLogs)
	p.WebhookLogs = poll.NewPagedPoller("webhook-logs", cfg.WebhookLogInterval, cfg.LogPageSize,
		func(ctx context.Context, skip, limit int) (poll.Page[model.WebhookLogEntry], error) {
			page, err := client.WebhookLogs(ctx, skip, limit)
			if err != nil {
				return poll.Page[model.WebhookLogEntry]{}, err
			}
			return poll.Page[model.WebhookLogEntry]{Items: page.Logs, Total: page.Total}, nil
		})

	ctrlCfg := controller.GetConfig()
	p.Keys = controller.NewAPIKeyController(client, ctrlCfg.KeyListInterval, ctrlCfg.NameCheckDebounce)
	p.Settings = controller.NewSettingsController(client)

	return p
}

func (p *Panel) Session() *session.Store { return p.session }

// Start arms the panel. Pollers begin immediately when a session was
// restored, otherwise on the next login. The returned stop releases the
// session subscription and every running poller.
func (p *Panel) Start(ctx context.Context) (stop func()) {
	p.mu.Lock()
	p.ctx = ctx
	p.mu.Unlock()

	unsubscribe := p.session.Subscribe(func(authorized bool) {
		if authorized {
			p.startPollers()
		} else {
			p.stopPollers()
		}
	})
	p.mu.Lock()
	p.unsubscribe = unsubscribe
	p.mu.Unlock()

	if p.session.Authorized() {
		p.startPollers()
	}

	return func() {
		p.mu.Lock()
		release := p.unsubscribe
		p.unsubscribe = nil
		p.mu.Unlock()
		if release != nil {
			release()
		}
		p.stopPollers()
	}
}

func (p *Panel) startPollers() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running || p.ctx == nil {
		return
	}
	p.running = true
	p.stops = []func(){
		p.Metrics.Start(p.ctx),
		p.Positions.Start(p.ctx),
		p.WebhookLogs.Start(p.ctx),
		p.SystemLogs.Start(p.ctx),
		p.Keys.Start(p.ctx),
	}
	logger.Info("panel pollers started")
}

func (p *Panel) stopPollers() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	stops := p.stops
	p.stops = nil
	p.mu.Unlock()

	for _, stop := range stops {
		stop()
	}
	logger.Info("panel pollers stopped")
}

// Login exchanges credentials for a bearer token and opens the session.
func (p *Panel) Login(ctx context.Context, username, password string) error {
	token, err := p.client.LoginToken(ctx, username, password)
	if err != nil {
		logger.WithError(err).Warn("login rejected")
		return err
	}
	p.session.Login(token.AccessToken)
	logger.WithField("user", username).Info("operator logged in")
	return nil
}

func (p *Panel) Logout() {
	p.session.Logout()
}

// Register creates an operator account. It does not open a session; the
// operator logs in afterwards.
func (p *Panel) Register(ctx context.Context, create model.UserCreate) (model.User, error) {
	return p.client.CreateUser(ctx, create)
}
