package health

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"tipbot/internal/metrics"
	"tipbot/internal/scheduler"
)

func TestRoot(t *testing.T) {
	h := NewRouter(func() scheduler.Status { return scheduler.Status{} }, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if diff := cmp.Diff(http.StatusOK, rec.Code); diff != "" {
		t.Errorf("status (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff("OK", rec.Body.String()); diff != "" {
		t.Errorf("body (-want +got):\n%s", diff)
	}
}

func TestHealthz(t *testing.T) {
	lastRun := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		status scheduler.Status
		want   map[string]any
	}{
		{
			name:   "never ran",
			status: scheduler.Status{Interval: 10 * time.Minute},
			want: map[string]any{
				"status":       "ok",
				"paused":       false,
				"running":      false,
				"interval_min": float64(10),
				"cycles":       float64(0),
				"last_run":     nil,
				"last_sent":    float64(0),
			},
		},
		{
			name: "last cycle failed",
			status: scheduler.Status{
				Interval:    15 * time.Minute,
				Paused:      true,
				Cycles:      4,
				LastCycleID: "c-1",
				LastRun:     lastRun,
				LastSent:    2,
				LastErr:     "collect alerts: boom",
			},
			want: map[string]any{
				"status":        "degraded",
				"paused":        true,
				"running":       false,
				"interval_min":  float64(15),
				"cycles":        float64(4),
				"last_cycle_id": "c-1",
				"last_run":      "2026-10-17T12:00:00Z",
				"last_sent":     float64(2),
				"last_error":    "collect alerts: boom",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewRouter(func() scheduler.Status { return tt.status }, nil)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			if diff := cmp.Diff("application/json", rec.Header().Get("Content-Type")); diff != "" {
				t.Errorf("content type (-want +got):\n%s", diff)
			}
			var got map[string]any
			if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("body (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	m := metrics.New()
	m.AlertsSent.Add(3)

	h := NewRouter(func() scheduler.Status { return scheduler.Status{} }, m)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if diff := cmp.Diff(http.StatusOK, rec.Code); diff != "" {
		t.Errorf("status (-want +got):\n%s", diff)
	}
	if !strings.Contains(rec.Body.String(), "tipbot_alerts_sent_total 3") {
		t.Errorf("metrics body missing counter:\n%s", rec.Body.String())
	}
}

func TestMetricsDisabled(t *testing.T) {
	h := NewRouter(func() scheduler.Status { return scheduler.Status{} }, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if diff := cmp.Diff(http.StatusNotFound, rec.Code); diff != "" {
		t.Errorf("status (-want +got):\n%s", diff)
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, "127.0.0.1:0", NewRouter(func() scheduler.Status { return scheduler.Status{} }, nil), log)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("serve: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not stop after context cancellation")
	}
}
