package observability_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/railcar-trips/internal/observability"
)

func TestNewMetrics_RegistersEverything(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)

	m.ObserveUpload(observability.OutcomeCommitted, 250*time.Millisecond)
	m.ObserveTrips(2, 1)
	m.EventsProcessed.Add(7)
	m.Warnings.Inc()
	m.RowErrors.Inc()

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.ElementsMatch(t, []string{
		"railcar_trips_uploads_total",
		"railcar_trips_events_processed_total",
		"railcar_trips_trips_created_total",
		"railcar_trips_warnings_total",
		"railcar_trips_row_errors_total",
		"railcar_trips_upload_duration_seconds",
	}, names)
}

func TestObserveTrips_SplitsByCompleteness(t *testing.T) {
	m := observability.NewMetricsForTesting()

	m.ObserveTrips(3, 2)
	m.ObserveTrips(1, 0)

	assert.InDelta(t, 4, testutil.ToFloat64(m.TripsCreated.WithLabelValues("true")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.TripsCreated.WithLabelValues("false")), 0)
}

func TestObserveUpload_CountsOutcome(t *testing.T) {
	m := observability.NewMetricsForTesting()

	m.ObserveUpload(observability.OutcomeFailed, time.Second)
	m.ObserveUpload(observability.OutcomeFailed, time.Second)
	m.ObserveUpload(observability.OutcomeRejected, time.Second)

	assert.InDelta(t, 2, testutil.ToFloat64(m.UploadsTotal.WithLabelValues(observability.OutcomeFailed)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.UploadsTotal.WithLabelValues(observability.OutcomeRejected)), 0)
	assert.Equal(t, 0, testutil.CollectAndCount(m.UploadsTotal, "railcar_trips_nope"))
}
