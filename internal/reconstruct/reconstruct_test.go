package reconstruct_test

import (
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/railcar-trips/internal/domain"
	"github.com/pkordes/railcar-trips/internal/reconstruct"
)

// ---- helpers ---------------------------------------------------------------

func referenceLocations() []domain.Location {
	return []domain.Location{
		{ID: 1, Name: "New York", TimeZone: "Eastern", UTCOffset: "-05:00"},
		{ID: 2, Name: "Chicago", TimeZone: "Central", UTCOffset: "-06:00"},
		{ID: 3, Name: "Los Angeles", TimeZone: "Pacific", UTCOffset: "-08:00"},
	}
}

func referenceCodes() []domain.EventCode {
	return []domain.EventCode{
		{Code: "W", Description: "Released", LongDescription: "Equipment released"},
		{Code: "Z", Description: "Placed", LongDescription: "Equipment placed"},
		{Code: "A", Description: "Arrival", LongDescription: "Arrived at location"},
		{Code: "D", Description: "Departure", LongDescription: "Departed location"},
	}
}

// sequentialIDs returns a goroutine-safe generator of predictable UUIDs.
func sequentialIDs() func() uuid.UUID {
	var n atomic.Uint32
	return func() uuid.UUID {
		v := n.Add(1)
		var id uuid.UUID
		id[12], id[13], id[14], id[15] = byte(v>>24), byte(v>>16), byte(v>>8), byte(v)
		return id
	}
}

func newReconstructor(workers int) *reconstruct.Reconstructor {
	res := reconstruct.NewResolver(referenceLocations(), referenceCodes(), reconstruct.NewClassifier(nil, nil))
	return reconstruct.New(res, reconstruct.Options{Workers: workers, NewID: sequentialIDs()})
}

func at(hour, minute int) time.Time {
	return time.Date(2024, 1, 1, hour, minute, 0, 0, time.UTC)
}

func raw(eq, code string, loc int, local time.Time) domain.RawEvent {
	return domain.RawEvent{EquipmentID: eq, EventCode: code, LocationID: loc, LocalTime: local}
}

func utc(day, hour int) time.Time {
	return time.Date(2024, 1, day, hour, 0, 0, 0, time.UTC)
}

// assertLinked checks the ownership invariants: every attached event is in
// exactly one trip's Events and that trip is the one it names.
func assertLinked(t *testing.T, res reconstruct.Result) {
	t.Helper()
	byID := make(map[uuid.UUID]domain.Trip, len(res.Trips))
	for _, tr := range res.Trips {
		byID[tr.ID] = tr
	}
	for _, ev := range res.Events {
		if ev.TripID == nil {
			continue
		}
		tr, ok := byID[*ev.TripID]
		require.True(t, ok, "event references unknown trip %s", ev.TripID)
		count := 0
		for _, member := range tr.Events {
			if member.UTCTime.Equal(ev.UTCTime) && member.EventCode == ev.EventCode && member.LocationID == ev.LocationID {
				count++
			}
		}
		assert.Equal(t, 1, count, "event must appear exactly once in its trip")
	}
	for _, tr := range res.Trips {
		for _, member := range tr.Events {
			require.NotNil(t, member.TripID)
			assert.Equal(t, tr.ID, *member.TripID)
		}
	}
}

// assertCompleteness checks that the destination fields are all set exactly
// when the trip is complete, and that duration matches the endpoints.
func assertCompleteness(t *testing.T, trips []domain.Trip) {
	t.Helper()
	for _, tr := range trips {
		allSet := tr.EndTime != nil && tr.DestinationLocationID != nil && tr.Duration != nil
		noneSet := tr.EndTime == nil && tr.DestinationLocationID == nil && tr.Duration == nil
		assert.True(t, allSet || noneSet, "destination fields must be all set or all unset")
		assert.Equal(t, tr.IsComplete, allSet)
		if allSet {
			require.NotNil(t, tr.StartTime)
			assert.Equal(t, tr.EndTime.Sub(*tr.StartTime), *tr.Duration)
			assert.GreaterOrEqual(t, *tr.Duration, time.Duration(0))
		}
	}
}

// ---- scenarios -------------------------------------------------------------

func TestRun_CompleteTrip(t *testing.T) {
	res := newReconstructor(1).Run([]domain.RawEvent{
		raw("EQ1", "W", 1, at(8, 0)),
		raw("EQ1", "Z", 2, at(16, 0)),
	}, nil)

	require.Len(t, res.Trips, 1)
	trip := res.Trips[0]
	assert.True(t, trip.IsComplete)
	assert.Equal(t, "EQ1", trip.EquipmentID)
	assert.Equal(t, 1, *trip.OriginLocationID)
	assert.Equal(t, 2, *trip.DestinationLocationID)
	// 08:00 at -05:00 is 13:00Z; 16:00 at -06:00 is 22:00Z.
	assert.Equal(t, utc(1, 13), *trip.StartTime)
	assert.Equal(t, utc(1, 22), *trip.EndTime)
	assert.Equal(t, 9*time.Hour, *trip.Duration)
	assert.Len(t, trip.Events, 2)

	assert.Equal(t, 2, res.Report.EventsProcessed)
	assert.Equal(t, 1, res.Report.TripsCreated)
	assert.Empty(t, res.Report.Warnings)
	assert.Empty(t, res.Report.Errors)
	assertLinked(t, res)
	assertCompleteness(t, res.Trips)
}

func TestRun_ReleaseWhileOpen_ClosesIncomplete(t *testing.T) {
	res := newReconstructor(1).Run([]domain.RawEvent{
		raw("EQ1", "W", 1, at(8, 0)),
		raw("EQ1", "W", 2, at(12, 0)),
		raw("EQ1", "Z", 3, at(16, 0)),
	}, nil)

	require.Len(t, res.Trips, 2)

	first := res.Trips[0]
	assert.False(t, first.IsComplete)
	assert.Equal(t, 1, *first.OriginLocationID)
	assert.Nil(t, first.DestinationLocationID)
	assert.Nil(t, first.EndTime)
	assert.Nil(t, first.Duration)
	assert.Len(t, first.Events, 1)

	second := res.Trips[1]
	assert.True(t, second.IsComplete)
	assert.Equal(t, 2, *second.OriginLocationID)
	assert.Equal(t, 3, *second.DestinationLocationID)
	// 12:00 at -06:00 is 18:00Z; 16:00 at -08:00 is 00:00Z the next day.
	assert.Equal(t, 6*time.Hour, *second.Duration)

	require.Len(t, res.Report.Warnings, 1)
	assert.Contains(t, res.Report.Warnings[0], "Incomplete trip")
	assert.Contains(t, res.Report.Warnings[0], "EQ1")
	assert.Equal(t, 3, res.Report.EventsProcessed)
	assert.Equal(t, 2, res.Report.TripsCreated)
	assertLinked(t, res)
	assertCompleteness(t, res.Trips)
}

func TestRun_OrphanedPlacement(t *testing.T) {
	res := newReconstructor(1).Run([]domain.RawEvent{
		raw("EQ1", "Z", 1, at(8, 0)),
	}, nil)

	assert.Empty(t, res.Trips)
	assert.Equal(t, 1, res.Report.EventsProcessed)
	assert.Equal(t, 0, res.Report.TripsCreated)
	require.Len(t, res.Report.Warnings, 1)
	assert.Equal(t, "Orphaned placement event for EQ1 at 2024-01-01T13:00:00Z", res.Report.Warnings[0])

	require.Len(t, res.Events, 1)
	assert.Nil(t, res.Events[0].TripID, "orphaned placement must not be attached")
}

func TestRun_UnknownLocation(t *testing.T) {
	res := newReconstructor(1).Run([]domain.RawEvent{
		raw("EQ1", "W", 99, at(8, 0)),
	}, nil)

	assert.Empty(t, res.Trips)
	assert.Empty(t, res.Events)
	assert.Equal(t, 0, res.Report.EventsProcessed)
	assert.Equal(t, 0, res.Report.TripsCreated)
	require.Len(t, res.Report.Warnings, 1)
	assert.Equal(t, "Unknown location id: 99 for equipment EQ1", res.Report.Warnings[0])
}

func TestRun_UnknownEventCode(t *testing.T) {
	res := newReconstructor(1).Run([]domain.RawEvent{
		raw("EQ7", "Q", 1, at(8, 0)),
	}, nil)

	assert.Equal(t, 0, res.Report.EventsProcessed)
	require.Len(t, res.Report.Warnings, 1)
	assert.Equal(t, "Unknown event code: Q for equipment EQ7", res.Report.Warnings[0])
}

func TestRun_InterleavedEquipment_NoCrossContamination(t *testing.T) {
	res := newReconstructor(4).Run([]domain.RawEvent{
		raw("EQ2", "W", 2, at(9, 0)),
		raw("EQ1", "W", 1, at(8, 0)),
		raw("EQ2", "Z", 3, at(17, 0)),
		raw("EQ1", "A", 2, at(11, 0)),
		raw("EQ1", "Z", 2, at(16, 0)),
	}, nil)

	require.Len(t, res.Trips, 2)
	assert.Equal(t, "EQ1", res.Trips[0].EquipmentID)
	assert.Equal(t, "EQ2", res.Trips[1].EquipmentID)

	for _, tr := range res.Trips {
		assert.True(t, tr.IsComplete)
		for _, ev := range tr.Events {
			assert.Equal(t, tr.EquipmentID, ev.EquipmentID, "event leaked into another equipment's trip")
		}
	}
	assert.Len(t, res.Trips[0].Events, 3)
	assert.Len(t, res.Trips[1].Events, 2)
	assert.Equal(t, 5, res.Report.EventsProcessed)
	assert.Empty(t, res.Report.Warnings)
	assertLinked(t, res)
}

// ---- state machine edges ---------------------------------------------------

func TestRun_OpenTripAtEndOfStream_IsIncomplete(t *testing.T) {
	res := newReconstructor(1).Run([]domain.RawEvent{
		raw("EQ1", "W", 1, at(8, 0)),
		raw("EQ1", "D", 1, at(9, 0)),
		raw("EQ1", "A", 2, at(14, 0)),
	}, nil)

	require.Len(t, res.Trips, 1)
	assert.False(t, res.Trips[0].IsComplete)
	assert.Len(t, res.Trips[0].Events, 3)
	assert.Empty(t, res.Report.Warnings, "in-transit equipment is not an anomaly")
	assertCompleteness(t, res.Trips)
}

func TestRun_IntermediateWithoutOpenTrip_IsUnattached(t *testing.T) {
	res := newReconstructor(1).Run([]domain.RawEvent{
		raw("EQ1", "A", 1, at(7, 0)),
		raw("EQ1", "W", 1, at(8, 0)),
		raw("EQ1", "Z", 2, at(16, 0)),
		raw("EQ1", "D", 2, at(17, 0)),
	}, nil)

	require.Len(t, res.Trips, 1)
	assert.Len(t, res.Trips[0].Events, 2)
	assert.Empty(t, res.Report.Warnings)
	assert.Equal(t, 4, res.Report.EventsProcessed)

	require.Len(t, res.Events, 4)
	assert.Nil(t, res.Events[0].TripID)
	assert.NotNil(t, res.Events[1].TripID)
	assert.NotNil(t, res.Events[2].TripID)
	assert.Nil(t, res.Events[3].TripID)
}

func TestRun_SortsByUniversalTimeNotLocal(t *testing.T) {
	// Placement at 08:00 Los Angeles (16:00Z) is earlier on the local clock than
	// the release at 10:00 New York (15:00Z) but later on the universal clock.
	res := newReconstructor(1).Run([]domain.RawEvent{
		raw("EQ1", "Z", 3, at(8, 0)),
		raw("EQ1", "W", 1, at(10, 0)),
	}, nil)

	require.Len(t, res.Trips, 1)
	assert.True(t, res.Trips[0].IsComplete)
	assert.Equal(t, time.Hour, *res.Trips[0].Duration)
	assert.Empty(t, res.Report.Warnings)
}

func TestRun_CustomClassifier(t *testing.T) {
	codes := append(referenceCodes(), domain.EventCode{Code: "R", Description: "Released (alt)"})
	res := reconstruct.NewResolver(referenceLocations(), codes, reconstruct.NewClassifier([]string{"W", "R"}, []string{"Z"}))
	out := reconstruct.New(res, reconstruct.Options{}).Run([]domain.RawEvent{
		raw("EQ1", "R", 1, at(8, 0)),
		raw("EQ1", "Z", 2, at(16, 0)),
	}, nil)

	require.Len(t, out.Trips, 1)
	assert.True(t, out.Trips[0].IsComplete)
}

// ---- aggregation -----------------------------------------------------------

func TestRun_RowErrorsPrecedeWarnings(t *testing.T) {
	res := newReconstructor(1).Run(
		[]domain.RawEvent{raw("EQ1", "W", 42, at(8, 0))},
		[]error{errors.New("Row 3: invalid City Id \"x\"")},
	)

	assert.Equal(t, []string{`Row 3: invalid City Id "x"`}, res.Report.Errors)
	assert.Equal(t, 1, res.Report.ErrorCount)
	assert.Len(t, res.Report.Warnings, 1)
	assert.Equal(t, 0, res.Report.SuccessCount, "success is only counted after commit")
}

func TestRun_Empty(t *testing.T) {
	res := newReconstructor(1).Run(nil, nil)

	assert.Equal(t, 0, res.Report.EventsProcessed)
	assert.Equal(t, 0, res.Report.TripsCreated)
	assert.NotNil(t, res.Report.Warnings)
	assert.NotNil(t, res.Report.Errors)
	assert.Empty(t, res.Trips)
}

func TestRun_TripsCreatedIsSumAcrossGroups(t *testing.T) {
	res := newReconstructor(2).Run([]domain.RawEvent{
		raw("EQ1", "W", 1, at(1, 0)),
		raw("EQ1", "Z", 2, at(5, 0)),
		raw("EQ1", "W", 2, at(6, 0)),
		raw("EQ1", "Z", 3, at(9, 0)),
		raw("EQ2", "W", 1, at(2, 0)),
		raw("EQ3", "Z", 1, at(2, 0)),
	}, nil)

	assert.Equal(t, 3, res.Report.TripsCreated)
	assert.Len(t, res.Trips, res.Report.TripsCreated)
	require.Len(t, res.Report.Warnings, 1)
	assert.True(t, strings.HasPrefix(res.Report.Warnings[0], "Orphaned placement event for EQ3"))
}

func TestRun_ParallelMatchesSequential(t *testing.T) {
	var input []domain.RawEvent
	for _, eq := range []string{"EQ5", "EQ3", "EQ1", "EQ4", "EQ2"} {
		input = append(input,
			raw(eq, "W", 1, at(1, 0)),
			raw(eq, "W", 2, at(3, 0)),
			raw(eq, "Z", 3, at(8, 0)),
			raw(eq, "Z", 3, at(9, 0)),
		)
	}

	seq := newReconstructor(1).Run(input, nil)
	par := newReconstructor(8).Run(input, nil)

	assert.Equal(t, seq.Report.Warnings, par.Report.Warnings)
	assert.Equal(t, seq.Report.TripsCreated, par.Report.TripsCreated)
	require.Len(t, par.Trips, len(seq.Trips))
	for i := range seq.Trips {
		assert.Equal(t, seq.Trips[i].EquipmentID, par.Trips[i].EquipmentID)
		assert.Equal(t, seq.Trips[i].OriginLocationID, par.Trips[i].OriginLocationID)
		assert.Equal(t, seq.Trips[i].IsComplete, par.Trips[i].IsComplete)
	}
	assertLinked(t, par)
	assertCompleteness(t, par.Trips)
}
