package domain

import "time"

// ExportRow is a single row in the full-data export.
// It is a flat, denormalized view: one row per event, with trip fields
// repeated for every event on that trip.
type ExportRow struct {
	// Trip fields, repeated for every event on the trip.
	TripID         string
	EquipmentID    string
	Origin         string
	Destination    string
	TripStart      *time.Time
	TripEnd        *time.Time
	TotalTripHours *float64
	IsComplete     bool

	// Event fields.
	EventCode      string
	CityName       string
	EventTimeLocal time.Time
	EventTimeUTC   time.Time
}
