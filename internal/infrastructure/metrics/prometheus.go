// Package metrics expone contadores Prometheus de emisión, auditoría y HTTP.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/billy-api/internal/application/audit"
	"github.com/jhoicas/billy-api/internal/application/billing"
)

const namespace = "billy"

// Prometheus agrupa los collectors en un registro propio.
type Prometheus struct {
	registry *prometheus.Registry

	issuanceTotal    *prometheus.CounterVec
	issuanceDuration *prometheus.HistogramVec
	archiveFailures  prometheus.Counter
	auditFailures    prometheus.Counter
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

var (
	_ billing.Metrics       = (*Prometheus)(nil)
	_ audit.FailureCounter = (*Prometheus)(nil)
)

// New registra los collectors de la aplicación más los de proceso y runtime.
func New() *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		issuanceTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dte_issuance_total",
			Help:      "Intentos de emisión de DTE por resultado.",
		}, []string{"outcome"}),
		issuanceDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dte_issuance_duration_seconds",
			Help:      "Duración de la emisión de DTE, incluida la llamada a la autoridad.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 3, 5, 10, 30},
		}, []string{"outcome"}),
		archiveFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dte_archive_failures_total",
			Help:      "Documentos aceptados que no se pudieron archivar.",
		}),
		auditFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_write_failures_total",
			Help:      "Registros de auditoría que no se pudieron escribir.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Peticiones HTTP por método, ruta y estado.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Latencia de las peticiones HTTP.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	p.registry.MustRegister(
		p.issuanceTotal, p.issuanceDuration, p.archiveFailures, p.auditFailures,
		p.httpRequests, p.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return p
}

// ObserveIssuance implementa billing.Metrics.
func (p *Prometheus) ObserveIssuance(outcome string, elapsed time.Duration) {
	p.issuanceTotal.WithLabelValues(outcome).Inc()
	p.issuanceDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// ArchiveFailed implementa billing.Metrics.
func (p *Prometheus) ArchiveFailed() { p.archiveFailures.Inc() }

// AuditWriteFailed implementa audit.FailureCounter.
func (p *Prometheus) AuditWriteFailed() { p.auditFailures.Inc() }

// ObserveHTTP registra una petición ya respondida. route es el patrón, no la URL.
func (p *Prometheus) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	p.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	p.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler endpoint de exposición en formato texto.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}
