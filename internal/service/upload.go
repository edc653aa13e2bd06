package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/pkordes/railcar-trips/internal/domain"
	"github.com/pkordes/railcar-trips/internal/ingest"
	"github.com/pkordes/railcar-trips/internal/observability"
	"github.com/pkordes/railcar-trips/internal/reconstruct"
	"github.com/pkordes/railcar-trips/internal/repo"
)

// UploadOptions tunes trip reconstruction for uploads.
type UploadOptions struct {
	Classifier reconstruct.Classifier
	Workers    int
	// NewID overrides trip ID generation. Nil means uuid.New.
	NewID func() uuid.UUID
}

// UploadService turns an uploaded event feed into stored trips.
type UploadService struct {
	refs    repo.ReferenceRepo
	trips   repo.TripRepo
	opts    UploadOptions
	clock   clockwork.Clock
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewUploadService constructs an UploadService backed by the provided repos.
func NewUploadService(
	refs repo.ReferenceRepo,
	trips repo.TripRepo,
	opts UploadOptions,
	clock clockwork.Clock,
	metrics *observability.Metrics,
	logger *slog.Logger,
) *UploadService {
	return &UploadService{
		refs:    refs,
		trips:   trips,
		opts:    opts,
		clock:   clock,
		metrics: metrics,
		logger:  logger,
	}
}

// Upload parses r, reconstructs trips against the current reference data and
// commits every trip and event in one transaction.
//
// Upload never fails: every problem ends up in the returned report.
// SuccessCount equals EventsProcessed when the batch was committed and is 0
// otherwise.
func (s *UploadService) Upload(ctx context.Context, r io.Reader) domain.ProcessingReport {
	start := s.clock.Now()
	report, outcome := s.upload(ctx, r)
	s.metrics.ObserveUpload(outcome, s.clock.Since(start))
	return report
}

func (s *UploadService) upload(ctx context.Context, r io.Reader) (domain.ProcessingReport, string) {
	resolver, err := s.loadResolver(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "upload: load reference data", "error", err)
		return failedReport("Processing error: " + err.Error()), observability.OutcomeFailed
	}

	batch, err := ingest.Parse(r)
	if err != nil {
		s.logger.WarnContext(ctx, "upload: rejected feed", "error", err)
		return failedReport("Processing error: " + err.Error()), observability.OutcomeRejected
	}

	res := reconstruct.New(resolver, reconstruct.Options{
		Workers: s.opts.Workers,
		NewID:   s.opts.NewID,
	}).Run(batch.Records, batch.RowErrors)
	report := res.Report

	s.metrics.EventsProcessed.Add(float64(report.EventsProcessed))
	s.metrics.Warnings.Add(float64(len(report.Warnings)))
	s.metrics.RowErrors.Add(float64(len(batch.RowErrors)))

	createdAt := s.clock.Now().UTC()
	complete := 0
	for i := range res.Trips {
		res.Trips[i].CreatedAt = createdAt
		if res.Trips[i].IsComplete {
			complete++
		}
	}

	if len(res.Events) > 0 {
		if err := s.trips.SaveBatch(ctx, res.Trips, res.Events); err != nil {
			s.logger.ErrorContext(ctx, "upload: save batch",
				"error", err,
				"trips", len(res.Trips),
				"events", len(res.Events),
			)
			report.AddError("Database error: " + err.Error())
			return report, observability.OutcomeFailed
		}
	}

	report.SuccessCount = report.EventsProcessed
	s.metrics.ObserveTrips(complete, len(res.Trips)-complete)
	s.logger.InfoContext(ctx, "upload committed",
		"rows", len(batch.Records)+len(batch.RowErrors),
		"events_processed", report.EventsProcessed,
		"trips_created", report.TripsCreated,
		"trips_complete", complete,
		"warnings", len(report.Warnings),
		"errors", report.ErrorCount,
	)
	return report, observability.OutcomeCommitted
}

// loadResolver snapshots the reference tables for one upload.
func (s *UploadService) loadResolver(ctx context.Context) (*reconstruct.Resolver, error) {
	locations, err := s.refs.ListLocations(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.UploadService.loadResolver: %w", err)
	}
	codes, err := s.refs.ListEventCodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.UploadService.loadResolver: %w", err)
	}
	return reconstruct.NewResolver(locations, codes, s.opts.Classifier), nil
}

func failedReport(msg string) domain.ProcessingReport {
	report := domain.NewProcessingReport()
	report.AddError(msg)
	return report
}
