package panel

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"operatorpanel/src/connectors"
	"operatorpanel/src/poll"
	"operatorpanel/src/session"
)

type fakeEngine struct {
	mu       sync.Mutex
	token    string
	revoked  bool
	requests map[string]int
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{token: "tok-1", requests: make(map[string]int)}
}

func (f *fakeEngine) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[path]
}

func (f *fakeEngine) revoke() {
	f.mu.Lock()
	f.revoked = true
	f.mu.Unlock()
}

func (f *fakeEngine) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests[r.URL.Path]++
		revoked := f.revoked
		token := f.token
		f.mu.Unlock()

		if r.URL.Path == "/token" {
			if err := r.ParseForm(); err != nil || r.PostForm.Get("username") == "" {
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"detail": "bad credentials"})
				return
			}
			json.NewEncoder(w).Encode(map[string]string{"access_token": token, "token_type": "bearer"})
			return
		}

		if revoked || r.Header.Get("Authorization") != "Bearer "+token {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"detail": "could not validate credentials"})
			return
		}

		switch r.URL.Path {
		case "/dashboard-metrics/":
			json.NewEncoder(w).Encode(map[string]any{
				"active_group_count": 2, "pool_usage": "2/5", "queued_signal_count": 0,
				"total_pnl_usd": 110.5, "last_webhook_timestamp": "2026-08-30T10:00:00Z",
				"engine_status": "running", "risk_engine_status": "idle", "alerts": []string{},
			})
		case "/position-groups/":
			w.Write([]byte(`[]`))
		case "/webhooks/logs/":
			json.NewEncoder(w).Encode(map[string]any{"logs": []any{}, "total": 0})
		case "/logs/":
			json.NewEncoder(w).Encode(map[string]any{"logs": []string{"engine started"}})
		case "/api-keys/":
			w.Write([]byte(`[]`))
		case "/config/":
			w.Write([]byte(`{}`))
		default:
			http.NotFound(w, r)
		}
	})
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

func testConfig() Config {
	return Config{
		MetricsInterval:    20 * time.Millisecond,
		PositionsInterval:  20 * time.Millisecond,
		WebhookLogInterval: 20 * time.Millisecond,
		SystemLogInterval:  20 * time.Millisecond,
		LogPageSize:        10,
	}
}

func newTestPanel(t *testing.T) (*Panel, *fakeEngine, func()) {
	t.Helper()
	engine := newFakeEngine()
	srv := httptest.NewServer(engine.handler())

	sess := session.NewStore(nil)
	client := connectors.NewEngineClient(srv.URL, sess)
	p := New(testConfig(), sess, client)

	ctx, cancel := context.WithCancel(context.Background())
	stop := p.Start(ctx)
	return p, engine, func() {
		stop()
		cancel()
		srv.Close()
	}
}

func TestLoginStartsEveryPollWithoutRestart(t *testing.T) {
	p, engine, teardown := newTestPanel(t)
	defer teardown()

	// unauthenticated: nothing polls
	time.Sleep(60 * time.Millisecond)
	if n := engine.count("/dashboard-metrics/"); n != 0 {
		t.Fatalf("metrics polled before login: %d requests", n)
	}

	if err := p.Login(context.Background(), "admin", "hunter2"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if !p.Session().Authorized() {
		t.Fatal("token not stored after login")
	}

	waitUntil(t, time.Second, func() (bool, string) {
		return p.Metrics.Status().State == poll.StateReady, "metrics never became ready"
	})
	waitUntil(t, time.Second, func() (bool, string) {
		return p.Positions.Status().State == poll.StateReady, "positions never became ready"
	})
	waitUntil(t, time.Second, func() (bool, string) {
		return p.WebhookLogs.Status().State == poll.StateReady, "webhook logs never became ready"
	})
	waitUntil(t, time.Second, func() (bool, string) {
		return p.SystemLogs.Status().State == poll.StateReady, "system logs never became ready"
	})

	if got := p.Metrics.Status().Value.ActiveGroupCount; got != 2 {
		t.Fatalf("unexpected metrics snapshot: %d active groups", got)
	}
}

func TestLogoutStopsPolling(t *testing.T) {
	p, engine, teardown := newTestPanel(t)
	defer teardown()

	if err := p.Login(context.Background(), "admin", "hunter2"); err != nil {
		t.Fatalf("login: %v", err)
	}
	waitUntil(t, time.Second, func() (bool, string) {
		return p.Metrics.Status().State == poll.StateReady, "metrics never became ready"
	})

	p.Logout()
	if p.Session().Authorized() {
		t.Fatal("session survived logout")
	}

	// let any in-flight tick drain, then confirm the pollers are quiet
	time.Sleep(60 * time.Millisecond)
	before := engine.count("/dashboard-metrics/")
	time.Sleep(100 * time.Millisecond)
	if after := engine.count("/dashboard-metrics/"); after != before {
		t.Fatalf("metrics still polling after logout: %d -> %d", before, after)
	}
}

func TestEngine401TearsDownSession(t *testing.T) {
	p, engine, teardown := newTestPanel(t)
	defer teardown()

	if err := p.Login(context.Background(), "admin", "hunter2"); err != nil {
		t.Fatalf("login: %v", err)
	}
	waitUntil(t, time.Second, func() (bool, string) {
		return p.Metrics.Status().State == poll.StateReady, "metrics never became ready"
	})

	engine.revoke()
	waitUntil(t, time.Second, func() (bool, string) {
		return !p.Session().Authorized(), "session survived an engine 401"
	})
}

func TestLoginRejectionKeepsSessionClosed(t *testing.T) {
	p, _, teardown := newTestPanel(t)
	defer teardown()

	if err := p.Login(context.Background(), "", ""); err == nil {
		t.Fatal("expected login to fail")
	}
	if p.Session().Authorized() {
		t.Fatal("rejected login opened a session")
	}
}
