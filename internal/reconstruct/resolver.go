package reconstruct

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pkordes/railcar-trips/internal/domain"
)

// Default event codes for the trip-opening and trip-closing kinds.
const (
	DefaultReleaseCode   = "W"
	DefaultPlacementCode = "Z"
)

// Classifier maps a recognised event code to its EventKind.
// Codes are matched exactly; anything not listed is KindIntermediate.
type Classifier struct {
	release   map[string]struct{}
	placement map[string]struct{}
}

// NewClassifier builds a Classifier from the release and placement code lists.
// Empty lists fall back to the defaults ("W" and "Z").
func NewClassifier(release, placement []string) Classifier {
	if len(release) == 0 {
		release = []string{DefaultReleaseCode}
	}
	if len(placement) == 0 {
		placement = []string{DefaultPlacementCode}
	}
	return Classifier{release: toSet(release), placement: toSet(placement)}
}

// Kind returns the kind for code.
func (c Classifier) Kind(code string) domain.EventKind {
	if _, ok := c.release[code]; ok {
		return domain.KindRelease
	}
	if _, ok := c.placement[code]; ok {
		return domain.KindPlacement
	}
	return domain.KindIntermediate
}

func toSet(codes []string) map[string]struct{} {
	out := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		if c = strings.TrimSpace(c); c != "" {
			out[c] = struct{}{}
		}
	}
	return out
}

// Resolver looks up reference data for raw events.
// It is built once per run from snapshots of the location and event code
// tables and is safe for concurrent reads.
type Resolver struct {
	locations map[int]domain.Location
	codes     map[string]domain.EventCode
	classify  Classifier
}

// NewResolver indexes locations by ID and event codes by code.
// Later duplicates replace earlier ones.
func NewResolver(locations []domain.Location, codes []domain.EventCode, c Classifier) *Resolver {
	r := &Resolver{
		locations: make(map[int]domain.Location, len(locations)),
		codes:     make(map[string]domain.EventCode, len(codes)),
		classify:  c,
	}
	for _, l := range locations {
		r.locations[l.ID] = l
	}
	for _, ec := range codes {
		r.codes[ec.Code] = ec
	}
	return r
}

// Location returns the location with the given ID.
// Returns domain.ErrUnknownLocation if there is none.
func (r *Resolver) Location(id int) (domain.Location, error) {
	l, ok := r.locations[id]
	if !ok {
		return domain.Location{}, fmt.Errorf("%w: %d", domain.ErrUnknownLocation, id)
	}
	return l, nil
}

// EventCode returns the definition and kind of code.
// Returns domain.ErrUnknownEventCode if there is no definition.
func (r *Resolver) EventCode(code string) (domain.EventCode, domain.EventKind, error) {
	ec, ok := r.codes[code]
	if !ok {
		return domain.EventCode{}, domain.KindIntermediate, fmt.Errorf("%w: %s", domain.ErrUnknownEventCode, code)
	}
	return ec, r.classify.Kind(code), nil
}

// Normalize resolves raw against the reference tables and converts its local
// time to UTC using the location's offset. The location is checked before the
// event code, so a row with both unknown reports only the location.
func (r *Resolver) Normalize(raw domain.RawEvent) (domain.Event, error) {
	loc, err := r.Location(raw.LocationID)
	if err != nil {
		return domain.Event{}, err
	}
	_, kind, err := r.EventCode(raw.EventCode)
	if err != nil {
		return domain.Event{}, err
	}
	utc, err := ToUniversal(raw.LocalTime, loc.UTCOffset)
	if err != nil {
		return domain.Event{}, err
	}

	return domain.Event{
		EquipmentID: raw.EquipmentID,
		EventCode:   raw.EventCode,
		Kind:        kind,
		LocationID:  raw.LocationID,
		LocalTime:   raw.LocalTime,
		UTCTime:     utc,
	}, nil
}

// resolutionWarning renders a Normalize failure as a report warning naming
// the offending value and the equipment.
func resolutionWarning(raw domain.RawEvent, err error) string {
	switch {
	case errors.Is(err, domain.ErrUnknownLocation):
		return fmt.Sprintf("Unknown location id: %d for equipment %s", raw.LocationID, raw.EquipmentID)
	case errors.Is(err, domain.ErrUnknownEventCode):
		return fmt.Sprintf("Unknown event code: %s for equipment %s", raw.EventCode, raw.EquipmentID)
	case errors.Is(err, domain.ErrInvalidOffset):
		return fmt.Sprintf("Invalid UTC offset for location id: %d for equipment %s", raw.LocationID, raw.EquipmentID)
	default:
		return fmt.Sprintf("Unresolved event for equipment %s: %v", raw.EquipmentID, err)
	}
}
