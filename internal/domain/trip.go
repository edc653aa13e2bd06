// Package domain contains the core data types for the railcar trips service.
// It is imported by every other internal package (reconstruct, repo, service,
// handler) and depends on nothing but uuid.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Placeholder names shown for trips that lack an origin or destination.
const (
	UnknownOrigin = "Unknown"
	InTransit     = "In Transit"
)

// Trip is one movement of a piece of equipment from an origin to a destination.
// A trip owns its events; each member event carries the trip's ID.
//
// DestinationLocationID, EndTime and Duration are either all set (IsComplete)
// or all nil.
type Trip struct {
	ID                    uuid.UUID
	EquipmentID           string
	OriginLocationID      *int
	DestinationLocationID *int
	StartTime             *time.Time
	EndTime               *time.Time
	Duration              *time.Duration
	IsComplete            bool
	CreatedAt             time.Time
	Events                []Event
}

// TripSummary is the list view of a stored trip with location names resolved.
type TripSummary struct {
	ID             uuid.UUID  `json:"tripId"`
	EquipmentID    string     `json:"equipmentId"`
	Origin         string     `json:"origin"`
	Destination    string     `json:"destination"`
	StartDateTime  *time.Time `json:"startDateTime"`
	EndDateTime    *time.Time `json:"endDateTime"`
	TotalTripHours *float64   `json:"totalTripHours"`
	IsComplete     bool       `json:"isComplete"`
}

// TripDetail is a trip summary plus its events ordered by universal time.
type TripDetail struct {
	TripSummary
	Events []EventView `json:"events"`
}
