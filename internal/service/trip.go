// Package service contains the business logic for the railcar trips API.
// Services orchestrate repo calls and the reconstruction pipeline; no SQL
// lives here.
package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pkordes/railcar-trips/internal/domain"
	"github.com/pkordes/railcar-trips/internal/repo"
)

// TripService implements the read side of stored trips.
type TripService struct {
	repo repo.TripRepo
}

// NewTripService constructs a TripService backed by the provided TripRepo.
func NewTripService(r repo.TripRepo) *TripService {
	return &TripService{repo: r}
}

// ListPaged returns one page of trips, most recent start first, and the total
// number of trips. Always returns a non-nil slice.
// Returns domain.ErrValidation if p is outside the allowed page range.
func (s *TripService) ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.TripSummary, int64, error) {
	if p.Page < 1 || p.Limit < 1 || p.Limit > domain.MaxPageLimit {
		return nil, 0, fmt.Errorf("service.TripService.ListPaged: page %d limit %d: %w", p.Page, p.Limit, domain.ErrValidation)
	}
	trips, total, err := s.repo.ListPaged(ctx, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.TripService.ListPaged: %w", err)
	}
	out := make([]domain.TripSummary, 0, len(trips))
	for _, t := range trips {
		out = append(out, withPlaceholders(t))
	}
	return out, total, nil
}

// GetByID returns a trip with its events.
// Returns domain.ErrNotFound if the trip does not exist.
func (s *TripService) GetByID(ctx context.Context, id uuid.UUID) (domain.TripDetail, error) {
	detail, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.TripDetail{}, fmt.Errorf("service.TripService.GetByID: %w", err)
	}
	detail.TripSummary = withPlaceholders(detail.TripSummary)
	if detail.Events == nil {
		detail.Events = []domain.EventView{}
	}
	return detail, nil
}

func withPlaceholders(t domain.TripSummary) domain.TripSummary {
	t.Origin, t.Destination = placeholders(t.Origin, t.Destination)
	return t
}

func placeholders(origin, destination string) (string, string) {
	if origin == "" {
		origin = domain.UnknownOrigin
	}
	if destination == "" {
		destination = domain.InTransit
	}
	return origin, destination
}
