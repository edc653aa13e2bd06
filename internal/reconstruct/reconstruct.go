// Package reconstruct turns a batch of raw equipment events into trips.
//
// The pipeline is resolve → normalize to UTC → group by equipment and sort →
// run the trip state machine per equipment → aggregate. It performs no I/O:
// reference data comes in as a Resolver, results go out as a Result, and the
// caller decides where either lives.
package reconstruct

import (
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pkordes/railcar-trips/internal/domain"
)

// Result is the output of one reconstruction run.
// Trips and Events are fully linked: every event with a TripID appears in the
// Events of exactly that trip. Events lists every processed event, attached or
// not, grouped by equipment in ascending EquipmentID order.
type Result struct {
	Trips  []domain.Trip
	Events []domain.Event
	Report domain.ProcessingReport
}

// Options tunes a Reconstructor.
type Options struct {
	// Workers bounds how many equipment groups are reconstructed concurrently.
	// Values below 1 mean 1.
	Workers int

	// NewID generates trip IDs. Defaults to uuid.New. Must be safe for
	// concurrent use when Workers > 1.
	NewID func() uuid.UUID
}

// Reconstructor runs the trip reconstruction pipeline against one snapshot
// of reference data.
type Reconstructor struct {
	resolver *Resolver
	workers  int
	newID    func() uuid.UUID
}

// New constructs a Reconstructor backed by the provided Resolver.
func New(resolver *Resolver, opts Options) *Reconstructor {
	r := &Reconstructor{resolver: resolver, workers: opts.Workers, newID: opts.NewID}
	if r.workers < 1 {
		r.workers = 1
	}
	if r.newID == nil {
		r.newID = uuid.New
	}
	return r
}

// Run reconstructs trips from records. rowErrors are structural failures
// found before records were produced (malformed rows); each becomes one
// report error ahead of any warning.
//
// Records that fail resolution are dropped with one warning each and are not
// counted as processed. Equipment groups are independent and may run in
// parallel; their output is merged in ascending EquipmentID order, so the
// result does not depend on scheduling.
func (r *Reconstructor) Run(records []domain.RawEvent, rowErrors []error) Result {
	agg := newAggregator()
	for _, err := range rowErrors {
		agg.rowError(err.Error())
	}

	events := make([]domain.Event, 0, len(records))
	for _, raw := range records {
		ev, err := r.resolver.Normalize(raw)
		if err != nil {
			agg.warn(resolutionWarning(raw, err))
			continue
		}
		agg.processed()
		events = append(events, ev)
	}

	groups := GroupByEquipment(events)
	results := make([]groupResult, len(groups))

	var g errgroup.Group
	g.SetLimit(r.workers)
	for i, grp := range groups {
		g.Go(func() error {
			results[i] = reconstructGroup(grp, r.newID)
			return nil
		})
	}
	_ = g.Wait() // workers never return an error

	for _, res := range results {
		agg.merge(res)
	}
	return agg.result()
}
