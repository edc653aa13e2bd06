package domain

import (
	"time"

	"github.com/google/uuid"
)

// RawEvent is one row of an uploaded event feed after structural parsing.
// LocalTime carries wall-clock fields only; its location is always UTC and
// must not be interpreted as an instant until normalized.
type RawEvent struct {
	Line        int
	EquipmentID string
	EventCode   string
	LocationID  int
	LocalTime   time.Time
}

// Event is a raw event that passed reference resolution and has been placed
// on the universal clock.
// TripID is nil for events that do not belong to any trip (orphaned
// placements, waypoint events seen while no trip was open).
type Event struct {
	ID          int64
	EquipmentID string
	EventCode   string
	Kind        EventKind
	LocationID  int
	LocalTime   time.Time
	UTCTime     time.Time
	TripID      *uuid.UUID
}

// EventView is an event joined with its reference data for display.
type EventView struct {
	ID               int64     `json:"eventId"`
	EquipmentID      string    `json:"equipmentId"`
	EventCode        string    `json:"eventCode"`
	EventDescription string    `json:"eventDescription"`
	CityName         string    `json:"cityName"`
	EventTimeLocal   time.Time `json:"eventTimeLocal"`
	EventTimeUTC     time.Time `json:"eventTimeUtc"`
}
