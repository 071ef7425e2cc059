package controller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"operatorpanel/src/forms"
	"operatorpanel/src/model"
	"operatorpanel/src/poll"
)

type fakeKeyClient struct {
	mu sync.Mutex

	keys   []model.ApiKey
	exists map[string]bool

	createErr error
	updateErr error
	deleteErr error

	lists   int
	creates []model.ApiKeyCreate
	updates []uint
	deletes []uint
	checks  []string
}

func (f *fakeKeyClient) ListAPIKeys(ctx context.Context) ([]model.ApiKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	out := make([]model.ApiKey, len(f.keys))
	copy(out, f.keys)
	return out, nil
}

func (f *fakeKeyClient) CreateAPIKey(ctx context.Context, create model.ApiKeyCreate) (model.ApiKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, create)
	if f.createErr != nil {
		return model.ApiKey{}, f.createErr
	}
	rec := model.ApiKey{ID: uint(len(f.keys) + 1), Name: create.Name}
	f.keys = append(f.keys, rec)
	return rec, nil
}

func (f *fakeKeyClient) UpdateAPIKey(ctx context.Context, id uint, update model.ApiKeyUpdate) (model.ApiKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, id)
	if f.updateErr != nil {
		return model.ApiKey{}, f.updateErr
	}
	return model.ApiKey{ID: id, Name: update.Name}, nil
}

func (f *fakeKeyClient) DeleteAPIKey(ctx context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, id)
	return f.deleteErr
}

func (f *fakeKeyClient) CheckAPIKeyName(ctx context.Context, name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checks = append(f.checks, name)
	return f.exists[name], nil
}

func (f *fakeKeyClient) listCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lists
}

func (f *fakeKeyClient) createCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.creates)
}

func waitUntil(t *testing.T, timeout time.Duration, cond func() (bool, string)) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	var reason string
	for time.Now().Before(deadline) {
		var ok bool
		if ok, reason = cond(); ok {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v: %s", timeout, reason)
}

func TestAddBlockedWhenNameExists(t *testing.T) {
	client := &fakeKeyClient{exists: map[string]bool{"binance-main": true}}
	c := NewAPIKeyController(client, time.Hour, time.Millisecond)
	ctx := context.Background()

	c.InputName(ctx, "binance-main")
	if err := c.AddForm.Set("key", "abcdef123456"); err != nil {
		t.Fatalf("set key: %v", err)
	}

	err := c.Add(ctx)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if fieldErr := c.AddForm.FieldError("name"); !errors.Is(fieldErr, forms.ErrValueTaken) {
		t.Fatalf("expected taken-name field error, got %v", fieldErr)
	}
	if n := client.createCount(); n != 0 {
		t.Fatalf("create must never be sent for a taken name, got %d calls", n)
	}
}

func TestAddKicksPollerAndDropsPendingOnNextSnapshot(t *testing.T) {
	client := &fakeKeyClient{exists: map[string]bool{}}
	c := NewAPIKeyController(client, time.Hour, time.Millisecond)
	ctx := context.Background()

	stop := c.Start(ctx)
	defer stop()
	waitUntil(t, time.Second, func() (bool, string) {
		return c.List().State == poll.StateReady, "initial list never applied"
	})

	c.InputName(ctx, "kraken-hedge")
	if err := c.AddForm.Set("key", "abcdef123456"); err != nil {
		t.Fatalf("set key: %v", err)
	}
	if err := c.Add(ctx); err != nil {
		t.Fatalf("add: %v", err)
	}

	pending := c.Pending()
	if len(pending) != 1 || pending[0].Name != "kraken-hedge" {
		t.Fatalf("unexpected pending overlay: %+v", pending)
	}
	if pending[0].Marker == uuid.Nil {
		t.Fatal("pending entry carries no transient marker")
	}

	// the kick refetches and the applied snapshot supersedes the overlay
	waitUntil(t, time.Second, func() (bool, string) {
		return len(c.Pending()) == 0, "pending overlay survived a fresh snapshot"
	})
	st := c.List()
	if len(st.Value) != 1 || st.Value[0].Name != "kraken-hedge" {
		t.Fatalf("unexpected list after create: %+v", st.Value)
	}
	if c.AddForm.Value("name") != "" {
		t.Fatal("add form not reset after successful create")
	}
}

func TestFailedDeleteLeavesListAndRaisesBanner(t *testing.T) {
	client := &fakeKeyClient{
		keys:      []model.ApiKey{{ID: 1, Name: "alpha"}, {ID: 2, Name: "beta"}},
		deleteErr: errors.New("key is referenced by the active exchange"),
	}
	c := NewAPIKeyController(client, time.Hour, time.Millisecond)
	ctx := context.Background()

	stop := c.Start(ctx)
	defer stop()
	waitUntil(t, time.Second, func() (bool, string) {
		return c.List().State == poll.StateReady, "initial list never applied"
	})
	listsBefore := client.listCount()

	c.BeginDelete(model.ApiKey{ID: 2, Name: "beta"})
	err := c.ConfirmDelete(ctx)
	if err == nil {
		t.Fatal("expected delete to fail")
	}
	if c.Banner() == nil {
		t.Fatal("failed delete must raise the banner")
	}

	st := c.List()
	if len(st.Value) != 2 || st.Value[0].Name != "alpha" || st.Value[1].Name != "beta" {
		t.Fatalf("list changed after failed delete: %+v", st.Value)
	}
	if client.listCount() != listsBefore {
		t.Fatal("failed delete must not kick a refetch")
	}
	if c.DeleteTarget() == nil {
		t.Fatal("target cleared on failure, operator cannot retry")
	}

	c.ClearBanner()
	if c.Banner() != nil {
		t.Fatal("banner not cleared")
	}
}

func TestConfirmDeleteClearsTargetAndKicks(t *testing.T) {
	client := &fakeKeyClient{keys: []model.ApiKey{{ID: 7, Name: "old"}}}
	c := NewAPIKeyController(client, time.Hour, time.Millisecond)
	ctx := context.Background()

	stop := c.Start(ctx)
	defer stop()
	waitUntil(t, time.Second, func() (bool, string) {
		return c.List().State == poll.StateReady, "initial list never applied"
	})
	listsBefore := client.listCount()

	c.BeginDelete(model.ApiKey{ID: 7, Name: "old"})
	if err := c.ConfirmDelete(ctx); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if c.DeleteTarget() != nil {
		t.Fatal("target not cleared after successful delete")
	}
	waitUntil(t, time.Second, func() (bool, string) {
		return client.listCount() > listsBefore, "successful delete did not kick a refetch"
	})
}

func TestSaveEditTargetsServerID(t *testing.T) {
	client := &fakeKeyClient{keys: []model.ApiKey{{ID: 3, Name: "alpha"}}}
	c := NewAPIKeyController(client, time.Hour, time.Millisecond)
	ctx := context.Background()

	c.BeginEdit(model.ApiKey{ID: 3, Name: "alpha"})
	if got := c.EditForm.Value("name"); got != "alpha" {
		t.Fatalf("edit form not seeded: %q", got)
	}
	if err := c.EditForm.Set("name", "alpha-renamed"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := c.SaveEdit(ctx); err != nil {
		t.Fatalf("save edit: %v", err)
	}
	if len(client.updates) != 1 || client.updates[0] != 3 {
		t.Fatalf("expected one update of id 3, got %v", client.updates)
	}
	if c.EditTarget() != nil {
		t.Fatal("edit target not cleared after successful save")
	}
}

func TestSaveEditWithoutTargetIsRejected(t *testing.T) {
	client := &fakeKeyClient{}
	c := NewAPIKeyController(client, time.Hour, time.Millisecond)

	if err := c.SaveEdit(context.Background()); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if len(client.updates) != 0 {
		t.Fatal("update sent without a targeted record")
	}
}

func TestDismissClearsBothTargets(t *testing.T) {
	c := NewAPIKeyController(&fakeKeyClient{}, time.Hour, time.Millisecond)

	c.BeginEdit(model.ApiKey{ID: 1, Name: "a"})
	c.BeginDelete(model.ApiKey{ID: 2, Name: "b"})
	c.Dismiss()

	if c.EditTarget() != nil || c.DeleteTarget() != nil {
		t.Fatal("dismiss must clear every dialog target")
	}
}
