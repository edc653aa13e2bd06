package service

import (
	"context"
	"fmt"

	"github.com/pkordes/railcar-trips/internal/domain"
	"github.com/pkordes/railcar-trips/internal/repo"
)

// ExportService assembles the flat export of every trip and its events.
type ExportService struct {
	trips repo.TripRepo
}

// NewExportService constructs an ExportService backed by the provided TripRepo.
func NewExportService(trips repo.TripRepo) *ExportService {
	return &ExportService{trips: trips}
}

// Export returns one ExportRow per trip event, with the same origin and
// destination placeholders as the trip list.
func (s *ExportService) Export(ctx context.Context) ([]domain.ExportRow, error) {
	rows, err := s.trips.Export(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.ExportService.Export: %w", err)
	}
	if rows == nil {
		return []domain.ExportRow{}, nil
	}
	for i := range rows {
		rows[i].Origin, rows[i].Destination = placeholders(rows[i].Origin, rows[i].Destination)
	}
	return rows, nil
}
