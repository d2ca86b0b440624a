package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/billy-api/internal/infrastructure/metrics"
)

func scrape(t *testing.T, p *metrics.Prometheus) string {
	t.Helper()
	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestPrometheus_Contadores(t *testing.T) {
	p := metrics.New()
	p.ObserveIssuance("accepted", 2*time.Second)
	p.ObserveIssuance("accepted", 3*time.Second)
	p.ObserveIssuance("rejected", time.Second)
	p.ArchiveFailed()
	p.AuditWriteFailed()
	p.ObserveHTTP("GET", "/api/ventas/:id", 200, 10*time.Millisecond)

	out := scrape(t, p)
	assert.Contains(t, out, `billy_dte_issuance_total{outcome="accepted"} 2`)
	assert.Contains(t, out, `billy_dte_issuance_total{outcome="rejected"} 1`)
	assert.Contains(t, out, `billy_dte_archive_failures_total 1`)
	assert.Contains(t, out, `billy_audit_write_failures_total 1`)
	assert.Contains(t, out, `billy_http_requests_total{method="GET",route="/api/ventas/:id",status="200"} 1`)
	assert.Contains(t, out, `billy_dte_issuance_duration_seconds_count{outcome="accepted"} 2`)
}

func TestPrometheus_RegistrosIndependientes(t *testing.T) {
	a, b := metrics.New(), metrics.New()
	a.ArchiveFailed()
	assert.Contains(t, scrape(t, b), `billy_dte_archive_failures_total 0`)
}
