package reconstruct

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/railcar-trips/internal/domain"
)

// tripState is the state of one equipment's reconstruction: either no trip is
// open, or exactly one trip is open. There is no way to be "open" without a
// trip to hold.
type tripState interface {
	isTripState()
}

type noOpenTrip struct{}

type tripOpen struct {
	trip *domain.Trip
}

func (noOpenTrip) isTripState() {}
func (tripOpen) isTripState()   {}

// groupResult is everything one equipment's reconstruction produced.
// Events holds every input event in processing order, attached or not.
type groupResult struct {
	trips    []domain.Trip
	events   []domain.Event
	warnings []string
}

// machine folds one equipment's sorted events into trips.
type machine struct {
	equipmentID string
	newID       func() uuid.UUID
	out         groupResult
}

// reconstructGroup runs the trip state machine over g, which must already be
// sorted by UTCTime. A trip still open when the events run out is closed as
// incomplete: the equipment is in transit at the end of the observed window.
func reconstructGroup(g Group, newID func() uuid.UUID) groupResult {
	m := &machine{equipmentID: g.EquipmentID, newID: newID}

	var st tripState = noOpenTrip{}
	for _, ev := range g.Events {
		st = m.step(st, ev)
	}
	if open, ok := st.(tripOpen); ok {
		m.closeIncomplete(open.trip)
	}
	return m.out
}

// step applies one event to the current state and returns the next state.
//
//	NoOpenTrip --release-->      TripOpen    (new trip)
//	TripOpen   --release-->      TripOpen    (old trip closed incomplete, warning)
//	TripOpen   --placement-->    NoOpenTrip  (trip closed complete)
//	NoOpenTrip --placement-->    NoOpenTrip  (orphan warning)
//	any        --intermediate--> same        (attached when open)
func (m *machine) step(st tripState, ev domain.Event) tripState {
	switch ev.Kind {
	case domain.KindRelease:
		if open, ok := st.(tripOpen); ok {
			m.closeIncomplete(open.trip)
			m.warn(fmt.Sprintf("Incomplete trip for %s: new release event before placement", m.equipmentID))
		}
		origin, start := ev.LocationID, ev.UTCTime
		trip := &domain.Trip{
			ID:               m.newID(),
			EquipmentID:      m.equipmentID,
			OriginLocationID: &origin,
			StartTime:        &start,
		}
		m.attach(trip, ev)
		return tripOpen{trip: trip}

	case domain.KindPlacement:
		open, ok := st.(tripOpen)
		if !ok {
			m.warn(fmt.Sprintf("Orphaned placement event for %s at %s",
				m.equipmentID, ev.UTCTime.Format(time.RFC3339)))
			m.out.events = append(m.out.events, ev)
			return st
		}
		m.attach(open.trip, ev)
		m.closeComplete(open.trip, ev)
		return noOpenTrip{}

	default:
		if open, ok := st.(tripOpen); ok {
			m.attach(open.trip, ev)
		} else {
			m.out.events = append(m.out.events, ev)
		}
		return st
	}
}

// attach links ev to trip in both directions and records it as processed.
func (m *machine) attach(trip *domain.Trip, ev domain.Event) {
	id := trip.ID
	ev.TripID = &id
	trip.Events = append(trip.Events, ev)
	m.out.events = append(m.out.events, ev)
}

// closeComplete sets the destination fields from the placement event and
// emits the trip.
func (m *machine) closeComplete(trip *domain.Trip, ev domain.Event) {
	dest, end := ev.LocationID, ev.UTCTime
	d := end.Sub(*trip.StartTime)
	trip.DestinationLocationID = &dest
	trip.EndTime = &end
	trip.Duration = &d
	trip.IsComplete = true
	m.out.trips = append(m.out.trips, *trip)
}

// closeIncomplete emits trip with its destination fields left unset.
func (m *machine) closeIncomplete(trip *domain.Trip) {
	trip.IsComplete = false
	m.out.trips = append(m.out.trips, *trip)
}

func (m *machine) warn(msg string) {
	m.out.warnings = append(m.out.warnings, msg)
}
