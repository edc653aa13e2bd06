package reconstruct

import "github.com/pkordes/railcar-trips/internal/domain"

// aggregator accumulates the report, trips and events of one run.
// It never transforms what it is given.
type aggregator struct {
	report domain.ProcessingReport
	trips  []domain.Trip
	events []domain.Event
}

func newAggregator() *aggregator {
	return &aggregator{report: domain.NewProcessingReport()}
}

func (a *aggregator) rowError(msg string) {
	a.report.AddError(msg)
}

func (a *aggregator) warn(msg string) {
	a.report.Warnings = append(a.report.Warnings, msg)
}

func (a *aggregator) processed() {
	a.report.EventsProcessed++
}

// merge appends one equipment group's output. TripsCreated is the running
// sum of trips across groups.
func (a *aggregator) merge(g groupResult) {
	a.trips = append(a.trips, g.trips...)
	a.events = append(a.events, g.events...)
	a.report.Warnings = append(a.report.Warnings, g.warnings...)
	a.report.TripsCreated += len(g.trips)
}

func (a *aggregator) result() Result {
	return Result{Trips: a.trips, Events: a.events, Report: a.report}
}
