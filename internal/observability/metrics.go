// Package observability holds the Prometheus instruments for the upload
// pipeline.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "railcar_trips"

// Upload outcomes used as the "outcome" label on UploadsTotal.
const (
	OutcomeCommitted = "committed"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
)

// Metrics holds the counters and histograms for uploads and trip reconstruction.
type Metrics struct {
	UploadsTotal    *prometheus.CounterVec // labels: outcome={committed,rejected,failed}
	EventsProcessed prometheus.Counter
	TripsCreated    *prometheus.CounterVec // labels: complete={true,false}
	Warnings        prometheus.Counter
	RowErrors       prometheus.Counter
	UploadDuration  prometheus.Histogram
}

// NewMetrics creates the pipeline metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := newMetrics()
	reg.MustRegister(
		m.UploadsTotal,
		m.EventsProcessed,
		m.TripsCreated,
		m.Warnings,
		m.RowErrors,
		m.UploadDuration,
	)
	return m
}

// NewMetricsForTesting returns unregistered metrics so tests can create as
// many as they like without "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		UploadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "CSV uploads by outcome.",
		}, []string{"outcome"}),
		EventsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_processed_total",
			Help:      "Events normalized and handed to trip reconstruction.",
		}),
		TripsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trips_created_total",
			Help:      "Trips reconstructed and committed, by completeness.",
		}, []string{"complete"}),
		Warnings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "warnings_total",
			Help:      "Resolution and sequencing warnings reported to uploaders.",
		}),
		RowErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "row_errors_total",
			Help:      "Rows rejected while parsing uploaded CSV files.",
		}),
		UploadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_duration_seconds",
			Help:      "Wall time of a complete parse, reconstruct and commit cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}
}

// ObserveTrips counts committed trips by completeness.
func (m *Metrics) ObserveTrips(complete, incomplete int) {
	m.TripsCreated.WithLabelValues("true").Add(float64(complete))
	m.TripsCreated.WithLabelValues("false").Add(float64(incomplete))
}

// ObserveUpload records the outcome and duration of one upload.
func (m *Metrics) ObserveUpload(outcome string, elapsed time.Duration) {
	m.UploadsTotal.WithLabelValues(outcome).Inc()
	m.UploadDuration.Observe(elapsed.Seconds())
}
