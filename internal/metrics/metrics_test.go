package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"tipbot/internal/source"
)

func TestObserve(t *testing.T) {
	m := New()
	m.ObserveCycle("ok", 2*time.Second)
	m.ObserveCycle("ok", time.Second)
	m.ObserveCycle("skipped", 0)
	m.ObserveReports([]source.Report{
		{Source: "tipsport", Status: source.StatusOK, Count: 12},
		{Source: "understat", Status: source.StatusError},
	})
	m.AlertsSent.Add(3)

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{name: "ok cycles", got: testutil.ToFloat64(m.CyclesTotal.WithLabelValues("ok")), want: 2},
		{name: "skipped cycles", got: testutil.ToFloat64(m.CyclesTotal.WithLabelValues("skipped")), want: 1},
		{name: "tipsport ok", got: testutil.ToFloat64(m.SourceFetches.WithLabelValues("tipsport", "ok")), want: 1},
		{name: "understat error", got: testutil.ToFloat64(m.SourceFetches.WithLabelValues("understat", "error")), want: 1},
		{name: "tipsport records", got: testutil.ToFloat64(m.SourceRecords.WithLabelValues("tipsport")), want: 12},
		{name: "alerts", got: testutil.ToFloat64(m.AlertsSent), want: 3},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.AlertsSent.Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "tipbot_alerts_sent_total 1") {
		t.Errorf("metrics output missing counter:\n%s", body)
	}
}
