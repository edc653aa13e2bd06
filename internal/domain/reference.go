package domain

import "time"

// TimeZone is a named fixed UTC offset. Offsets never change with the
// calendar; daylight saving is not modelled.
type TimeZone struct {
	ID        int
	Name      string
	UTCOffset string // "±HH:MM"
	UpdatedAt time.Time
}

// Location is a city where equipment events are reported.
// IDs are assigned by the upstream feed, not generated by the database.
type Location struct {
	ID        int
	Name      string
	TimeZone  string
	UTCOffset string // "±HH:MM", copied from the location's time zone
}

// EventCode is the reference definition of an event type code in the feed.
type EventCode struct {
	Code            string
	Description     string
	LongDescription string
}

// EventKind is the role an event plays in trip reconstruction.
type EventKind int

const (
	// KindIntermediate covers every recognised code that neither opens nor
	// closes a trip (arrivals and departures at waypoints).
	KindIntermediate EventKind = iota
	// KindRelease opens a trip.
	KindRelease
	// KindPlacement closes a trip.
	KindPlacement
)

// String returns the lowercase name of the kind, used in logs and metrics labels.
func (k EventKind) String() string {
	switch k {
	case KindRelease:
		return "release"
	case KindPlacement:
		return "placement"
	default:
		return "intermediate"
	}
}
