package reconstruct

import (
	"cmp"
	"slices"

	"github.com/pkordes/railcar-trips/internal/domain"
)

// Group is the time-ordered event sequence of one piece of equipment.
type Group struct {
	EquipmentID string
	Events      []domain.Event
}

// GroupByEquipment partitions events by exact EquipmentID and sorts each
// partition ascending by UTCTime. Events with equal UTCTime keep their input
// order. Groups are returned in ascending EquipmentID order so that callers
// iterating them produce reproducible output.
func GroupByEquipment(events []domain.Event) []Group {
	index := make(map[string]int)
	var groups []Group
	for _, ev := range events {
		i, ok := index[ev.EquipmentID]
		if !ok {
			i = len(groups)
			index[ev.EquipmentID] = i
			groups = append(groups, Group{EquipmentID: ev.EquipmentID})
		}
		groups[i].Events = append(groups[i].Events, ev)
	}

	for i := range groups {
		SortByUTC(groups[i].Events)
	}
	slices.SortFunc(groups, func(a, b Group) int {
		return cmp.Compare(a.EquipmentID, b.EquipmentID)
	})
	return groups
}

// SortByUTC stable-sorts events ascending by UTCTime in place.
func SortByUTC(events []domain.Event) {
	slices.SortStableFunc(events, func(a, b domain.Event) int {
		return a.UTCTime.Compare(b.UTCTime)
	})
}
