// Package handler implements the HTTP handlers for the railcar trips API.
// All handlers are methods on Server. They are split into files by resource
// (health.go, upload.go, trip.go, export.go) and share the Server's
// dependencies.
package handler

import (
	"context"
	"io"
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pkordes/railcar-trips/internal/domain"
)

// UploadServicer processes an uploaded event feed.
type UploadServicer interface {
	Upload(ctx context.Context, r io.Reader) domain.ProcessingReport
}

// TripServicer defines the trip read operations the handlers depend on.
// Defining the interface here, in the consumer package, lets handler tests
// inject a mock without touching the database or service layer.
type TripServicer interface {
	ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.TripSummary, int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.TripDetail, error)
}

// ExportServicer produces the flat trip export.
type ExportServicer interface {
	Export(ctx context.Context) ([]domain.ExportRow, error)
}

// Server holds the dependencies of every API handler.
type Server struct {
	uploads UploadServicer
	trips   TripServicer
	export  ExportServicer
	logger  *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
// Tests may pass nil for services their routes do not touch.
func NewServer(uploads UploadServicer, trips TripServicer, export ExportServicer, logger *slog.Logger) *Server {
	return &Server{uploads: uploads, trips: trips, export: export, logger: logger}
}

// Routes registers every API route on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)

	r.Route("/api/trips", func(r chi.Router) {
		r.Get("/", s.ListTrips)
		r.Post("/upload", s.UploadTrips)
		r.Get("/export", s.ExportTrips)
		r.Get("/{id}", s.GetTrip)
	})
}
