package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	logger "github.com/sirupsen/logrus"

	"operatorpanel/src/panel"
	"operatorpanel/src/poll"
)

// snapshot is the wire shape of every /snapshot endpoint: the poll state and
// the last applied value, read-only.
type snapshot struct {
	State    string    `json:"state"`
	LastSync time.Time `json:"last_sync,omitempty"`
	Error    string    `json:"error,omitempty"`
	Value    any       `json:"value,omitempty"`
}

func writeSnapshot[T any](w http.ResponseWriter, st poll.Status[T]) {
	out := snapshot{State: st.State.String(), LastSync: st.LastSync}
	if st.Err != nil {
		out.Error = st.Err.Error()
	}
	if st.HasValue {
		out.Value = st.Value
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		logger.WithError(err).Error("failed to write snapshot")
	}
}

// NewRouter exposes read-only views of the running panel. There is no
// mutation surface here: writes go through the panel's own controllers.
func NewRouter(p *panel.Panel) *chi.Mux {
	r := chi.NewRouter()

	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.WithError(err).Error("\"/healthcheck\" error")
		}
	})

	r.Route("/snapshot", func(r chi.Router) {
		r.Get("/metrics", func(w http.ResponseWriter, _ *http.Request) {
			writeSnapshot(w, p.Metrics.Status())
		})
		r.Get("/positions", func(w http.ResponseWriter, _ *http.Request) {
			writeSnapshot(w, p.Positions.Status())
		})
		r.Get("/logs", func(w http.ResponseWriter, _ *http.Request) {
			writeSnapshot(w, p.WebhookLogs.Status())
		})
		r.Get("/system-logs", func(w http.ResponseWriter, _ *http.Request) {
			writeSnapshot(w, p.SystemLogs.Status())
		})
		r.Get("/api-keys", func(w http.ResponseWriter, _ *http.Request) {
			writeSnapshot(w, p.Keys.List())
		})
	})

	return r
}

// StartServer runs the snapshot server until SIGINT or SIGTERM, then shuts
// down gracefully.
func StartServer(port string, p *panel.Panel) {
	r := NewRouter(p)

	addr := ":" + port
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		logger.Infof("Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server crashed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Shutdown error")
	}
}
