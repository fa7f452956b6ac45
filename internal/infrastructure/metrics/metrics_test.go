package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Recorder calls land on the matching series.
func TestMetrics_Counters(t *testing.T) {
	m := New(false)

	m.PreOrderSaved("ok")
	m.PreOrderSaved("ok")
	m.PreOrderSaved("limit_exceeded")
	m.WaitlistJoined("duplicate")
	m.WaitlistNotified(3)
	m.WaitlistNotified(0)
	m.PlanGateDenied("json")
	m.WebhookProcessed("inventory_levels/update", "ok")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.preOrderSaves.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.preOrderSaves.WithLabelValues("limit_exceeded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.waitlistJoins.WithLabelValues("duplicate")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.waitlistNotify))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.planGateDenials.WithLabelValues("json")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.webhookEvents.WithLabelValues("inventory_levels/update", "ok")))
}

// The handler exposes the registry.
func TestMetrics_Handler(t *testing.T) {
	m := New(false)
	m.PreOrderSaved("ok")
	m.ObserveRequest("GET", "/health", "200", 0.01)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `preorder_saves_total{result="ok"} 1`)
	assert.Contains(t, string(body), `http_request_duration_seconds_count{method="GET",route="/health",status="200"} 1`)
}
