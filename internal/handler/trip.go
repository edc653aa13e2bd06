package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/railcar-trips/internal/domain"
)

// TripPage is the body of GET /api/trips.
type TripPage struct {
	Data       []domain.TripSummary `json:"data"`
	Pagination domain.Pagination    `json:"pagination"`
}

// ListTrips handles GET /api/trips?page=&limit=.
func (s *Server) ListTrips(w http.ResponseWriter, r *http.Request) {
	var page, limit *int
	query := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "page", query, &page); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, fmt.Sprintf("invalid page: %v", err))
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", query, &limit); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, fmt.Sprintf("invalid limit: %v", err))
		return
	}

	params := domain.NewPaginationParams(page, limit)
	trips, total, err := s.trips.ListPaged(r.Context(), params)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			writeError(w, http.StatusBadRequest, codeValidation, err.Error())
			return
		}
		s.internalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, TripPage{
		Data:       trips,
		Pagination: domain.NewPagination(params, total),
	})
}

// GetTrip handles GET /api/trips/{id}.
func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	var id openapi_types.UUID
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, fmt.Sprintf("invalid trip id: %v", err))
		return
	}

	trip, err := s.trips.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, codeNotFound, "trip not found")
			return
		}
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trip)
}
