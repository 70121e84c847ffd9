package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveAward(t *testing.T) {
	m := New()
	m.ObserveAward("manual_award", 10)
	m.ObserveAward("manual_award", 2.5)

	if got := testutil.ToFloat64(m.awards.WithLabelValues("manual_award")); got != 2 {
		t.Errorf("awards = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.points.WithLabelValues("manual_award")); got != 12.5 {
		t.Errorf("points = %v, want 12.5", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveAward("manual_award", 1)
	m.ObserveTransition("assigned", "completed")
	m.ObserveRedemption()
	m.ObserveRejected("not_found")
}

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.ObserveTransition("completed", "verified")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `homebase_assignment_transitions_total{from="completed",to="verified"} 1`) {
		t.Errorf("transition counter missing from exposition:\n%s", body)
	}
}
