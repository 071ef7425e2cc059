package controller

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"

	"operatorpanel/src/forms"
	"operatorpanel/src/model"
	"operatorpanel/src/poll"
)

type apiKeyClient interface {
	ListAPIKeys(ctx context.Context) ([]model.ApiKey, error)
	CreateAPIKey(ctx context.Context, create model.ApiKeyCreate) (model.ApiKey, error)
	UpdateAPIKey(ctx context.Context, id uint, update model.ApiKeyUpdate) (model.ApiKey, error)
	DeleteAPIKey(ctx context.Context, id uint) error
	CheckAPIKeyName(ctx context.Context, name string) (bool, error)
}

// PendingKey is an unconfirmed create. The marker is transient and never
// leaves the process; the server id is the only real identity.
type PendingKey struct {
	Marker uuid.UUID
	Name   string
}

// APIKeyController owns the key list poller, both key forms and the remote
// name-uniqueness check. Mutations never splice the list: success kicks the
// poller and the next applied snapshot is authoritative.
type APIKeyController struct {
	client apiKeyClient
	poller *poll.Poller[[]model.ApiKey]

	AddForm  *forms.ApiKeyForm
	EditForm *forms.ApiKeyForm

	nameCheck *forms.RemoteCheck

	mu           sync.Mutex
	pending      []PendingKey
	editTarget   *model.ApiKey
	deleteTarget *model.ApiKey
	banner       error
}

func NewAPIKeyController(client apiKeyClient, interval, debounce time.Duration) *APIKeyController {
	c := &APIKeyController{
		client:   client,
		AddForm:  forms.NewApiKeyForm(forms.ApiKeyAdd),
		EditForm: forms.NewApiKeyForm(forms.ApiKeyEdit),
	}
	c.nameCheck = forms.NewRemoteCheck("name", debounce, client.CheckAPIKeyName)
	c.poller = poll.NewPoller("api-keys", interval, client.ListAPIKeys).
		OnUpdate(c.reconcile)
	return c
}

func (c *APIKeyController) Start(ctx context.Context) (stop func()) {
	return c.poller.Start(ctx)
}

func (c *APIKeyController) Stop() { c.poller.Stop() }

func (c *APIKeyController) List() poll.Status[[]model.ApiKey] {
	return c.poller.Status()
}

// Pending returns unconfirmed creates still waiting for a poll to land.
func (c *APIKeyController) Pending() []PendingKey {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]PendingKey, len(c.pending))
	copy(out, c.pending)
	return out
}

// reconcile runs on every applied poll result. A fresh server snapshot
// supersedes any optimistic overlay, so pending markers are discarded.
func (c *APIKeyController) reconcile(st poll.Status[[]model.ApiKey]) {
	if st.Err != nil {
		return
	}
	c.mu.Lock()
	c.pending = nil
	c.mu.Unlock()
}

// InputName feeds the add form's name field and arms the debounced
// uniqueness check against the engine.
func (c *APIKeyController) InputName(ctx context.Context, value string) {
	if err := c.AddForm.Set("name", value); err != nil {
		return
	}
	c.nameCheck.Input(ctx, value)
}

// Add validates locally, settles the pending uniqueness check, and only then
// sends the create. A taken or unverifiable name blocks the request entirely.
func (c *APIKeyController) Add(ctx context.Context) error {
	errs := c.AddForm.ValidateAll()
	if checkErr := c.nameCheck.Settle(ctx); checkErr != nil {
		c.AddForm.SetExternalError("name", checkErr)
		return ErrValidation
	}
	if errs != nil {
		return ErrValidation
	}

	doc := c.AddForm.Document()
	created, err := c.client.CreateAPIKey(ctx, doc)
	if err != nil {
		logger.WithError(err).Warn("api key create rejected")
		c.setBanner(err)
		return err
	}
	logger.WithField("id", created.ID).Info("api key created")

	c.mu.Lock()
	c.pending = append(c.pending, PendingKey{Marker: uuid.New(), Name: doc.Name})
	c.mu.Unlock()

	c.AddForm.Reset()
	c.nameCheck.Cancel()
	c.poller.Kick()
	return nil
}

// BeginEdit targets a record and seeds the edit form. The edit dialog is
// visible exactly while a target is set.
func (c *APIKeyController) BeginEdit(rec model.ApiKey) {
	c.mu.Lock()
	c.editTarget = &rec
	c.mu.Unlock()
	c.EditForm.Load(rec.Name)
}

func (c *APIKeyController) EditTarget() *model.ApiKey {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.editTarget == nil {
		return nil
	}
	rec := *c.editTarget
	return &rec
}

func (c *APIKeyController) SaveEdit(ctx context.Context) error {
	c.mu.Lock()
	target := c.editTarget
	c.mu.Unlock()
	if target == nil {
		return ErrValidation
	}
	if errs := c.EditForm.ValidateAll(); errs != nil {
		return ErrValidation
	}

	if _, err := c.client.UpdateAPIKey(ctx, target.ID, c.EditForm.UpdateDocument()); err != nil {
		logger.WithError(err).WithField("id", target.ID).Warn("api key rename rejected")
		c.setBanner(err)
		return err
	}

	c.mu.Lock()
	c.editTarget = nil
	c.mu.Unlock()
	c.poller.Kick()
	return nil
}

// BeginDelete targets a record for the confirmation dialog.
func (c *APIKeyController) BeginDelete(rec model.ApiKey) {
	c.mu.Lock()
	c.deleteTarget = &rec
	c.mu.Unlock()
}

func (c *APIKeyController) DeleteTarget() *model.ApiKey {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.deleteTarget == nil {
		return nil
	}
	rec := *c.deleteTarget
	return &rec
}

// ConfirmDelete issues the delete for the targeted record. On failure the
// list is left untouched and the banner carries the server error.
func (c *APIKeyController) ConfirmDelete(ctx context.Context) error {
	c.mu.Lock()
	target := c.deleteTarget
	c.mu.Unlock()
	if target == nil {
		return ErrValidation
	}

	if err := c.client.DeleteAPIKey(ctx, target.ID); err != nil {
		logger.WithError(err).WithField("id", target.ID).Warn("api key delete rejected")
		c.setBanner(err)
		return err
	}

	c.mu.Lock()
	c.deleteTarget = nil
	c.mu.Unlock()
	c.poller.Kick()
	return nil
}

// Dismiss clears both dialog targets without issuing anything.
func (c *APIKeyController) Dismiss() {
	c.mu.Lock()
	c.editTarget = nil
	c.deleteTarget = nil
	c.mu.Unlock()
}

func (c *APIKeyController) Banner() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.banner
}

func (c *APIKeyController) ClearBanner() {
	c.mu.Lock()
	c.banner = nil
	c.mu.Unlock()
}

func (c *APIKeyController) setBanner(err error) {
	c.mu.Lock()
	c.banner = err
	c.mu.Unlock()
}
