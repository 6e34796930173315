package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"clai-chat/internal/queue"

	"github.com/prometheus/client_golang/prometheus"
)

func TestServersWithOwnRegistriesCoexist(t *testing.T) {
	q := queue.NewRequestQueueManager(1, 1)
	t.Cleanup(q.Shutdown)

	// Registering the same collectors twice on one registry panics, so two
	// servers built on the same address must each get their own.
	first := NewAPIServerWithRegistry(":0", q, nil, nil, prometheus.NewRegistry())
	second := NewAPIServerWithRegistry(":0", q, nil, nil, prometheus.NewRegistry())

	for _, server := range []*APIServer{first, second} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		server.metrics.metricsHandler().ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("metrics endpoint returned %d", rec.Code)
		}
	}
}
