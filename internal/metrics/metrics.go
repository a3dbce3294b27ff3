// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors registered on one registry.
type Metrics struct {
	Registry *prometheus.Registry

	CredentialsIssued *prometheus.CounterVec
	URLsBuilt         *prometheus.CounterVec
	Uploads           *prometheus.CounterVec
	UploadRetries     prometheus.Counter
	UploadBytes       prometheus.Counter
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		CredentialsIssued: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "imagekit",
				Subsystem: "gateway",
				Name:      "credentials_issued_total",
				Help:      "Upload credentials requested, by outcome",
			},
			[]string{"status"},
		),
		URLsBuilt: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "imagekit",
				Subsystem: "gateway",
				Name:      "transform_urls_total",
				Help:      "Transformation URLs built, by bucket layout",
			},
			[]string{"bucket"},
		),
		Uploads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "imagekit",
				Subsystem: "gateway",
				Name:      "uploads_total",
				Help:      "Proxied uploads, by outcome",
			},
			[]string{"status"},
		),
		UploadRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "imagekit",
			Subsystem: "gateway",
			Name:      "upload_retries_total",
			Help:      "Upload attempts retried after a token error",
		}),
		UploadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "imagekit",
			Subsystem: "gateway",
			Name:      "upload_bytes_total",
			Help:      "Bytes sent to the CDN by successful uploads",
		}),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.CredentialsIssued,
		m.URLsBuilt,
		m.Uploads,
		m.UploadRetries,
		m.UploadBytes,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
