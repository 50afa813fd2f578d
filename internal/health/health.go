// Package health serves the keep-alive, health and metrics endpoints.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"tipbot/internal/metrics"
	"tipbot/internal/scheduler"
)

// StatusFunc reports the scheduler state.
type StatusFunc func() scheduler.Status

type healthResponse struct {
	Status      string     `json:"status"`
	Paused      bool       `json:"paused"`
	Running     bool       `json:"running"`
	IntervalMin int        `json:"interval_min"`
	Cycles      int        `json:"cycles"`
	LastCycleID string     `json:"last_cycle_id,omitempty"`
	LastRun     *time.Time `json:"last_run"`
	LastSent    int        `json:"last_sent"`
	LastError   string     `json:"last_error,omitempty"`
}

// NewRouter returns the HTTP handler. m may be nil.
func NewRouter(status StatusFunc, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("OK"))
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, healthView(status()))
	})
	if m != nil {
		r.Handle("/metrics", m.Handler())
	}
	return r
}

func healthView(st scheduler.Status) healthResponse {
	resp := healthResponse{
		Status:      "ok",
		Paused:      st.Paused,
		Running:     st.Running,
		IntervalMin: int(st.Interval.Minutes()),
		Cycles:      st.Cycles,
		LastCycleID: st.LastCycleID,
		LastSent:    st.LastSent,
		LastError:   st.LastErr,
	}
	if !st.LastRun.IsZero() {
		t := st.LastRun.UTC()
		resp.LastRun = &t
	}
	if st.LastErr != "" {
		resp.Status = "degraded"
	}
	return resp
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// Serve runs the HTTP server on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, h http.Handler, log *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}
