package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mamadbah2/farmdash/internal/domain/models"
	"github.com/mamadbah2/farmdash/internal/server/handlers"
)

type stubAnalytics struct{}

func (stubAnalytics) Refresh(ctx context.Context) (bool, error)      { return false, nil }
func (stubAnalytics) RefreshStale(ctx context.Context) (bool, error) { return false, nil }
func (stubAnalytics) State() models.AnalyticsState                   { return models.AnalyticsState{Loading: true} }
func (stubAnalytics) Snapshot() *models.Snapshot                     { return nil }
func (stubAnalytics) Invalidate(string)                              {}

func newEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "farmdash_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	h := Handlers{
		Analytics: handlers.NewAnalyticsHandler(stubAnalytics{}, nil, nil),
		Records:   handlers.NewRecordsHandler(nil, stubAnalytics{}, nil),
	}
	return New(h, reg, nil)
}

func get(e *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealthAndMetrics(t *testing.T) {
	e := newEngine(t)

	if w := get(e, "/healthz"); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "ok") {
		t.Errorf("healthz status=%d body=%s", w.Code, w.Body.String())
	}
	w := get(e, "/metrics")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "farmdash_test_total 1") {
		t.Errorf("metrics status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestAnalyticsRouteMounted(t *testing.T) {
	w := get(newEngine(t), "/api/analytics")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"loading":true`) {
		t.Errorf("status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestWebhookRoutesOptional(t *testing.T) {
	if w := get(newEngine(t), "/webhook"); w.Code != http.StatusNotFound {
		t.Errorf("webhook without messaging status = %d", w.Code)
	}
}
