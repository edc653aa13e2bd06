package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/railcar-trips/internal/domain"
	"github.com/pkordes/railcar-trips/internal/repo"
	"github.com/pkordes/railcar-trips/internal/service"
)

// ---- mock repo -------------------------------------------------------------

// mockTripRepo is a hand-written test double for repo.TripRepo.
// Each method is a function field; set only the ones the test needs.
type mockTripRepo struct {
	saveBatch func(ctx context.Context, trips []domain.Trip, events []domain.Event) error
	listPaged func(ctx context.Context, p domain.PaginationParams) ([]domain.TripSummary, int64, error)
	getByID   func(ctx context.Context, id uuid.UUID) (domain.TripDetail, error)
	export    func(ctx context.Context) ([]domain.ExportRow, error)
}

func (m *mockTripRepo) SaveBatch(ctx context.Context, trips []domain.Trip, events []domain.Event) error {
	return m.saveBatch(ctx, trips, events)
}
func (m *mockTripRepo) ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.TripSummary, int64, error) {
	return m.listPaged(ctx, p)
}
func (m *mockTripRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.TripDetail, error) {
	return m.getByID(ctx, id)
}
func (m *mockTripRepo) Export(ctx context.Context) ([]domain.ExportRow, error) {
	return m.export(ctx)
}

// compile-time check: mockTripRepo must satisfy repo.TripRepo.
var _ repo.TripRepo = (*mockTripRepo)(nil)

func ptr[T any](v T) *T { return &v }

// ---- ListPaged -------------------------------------------------------------

func TestTripService_ListPaged_AppliesPlaceholders(t *testing.T) {
	start := time.Date(2024, 1, 1, 13, 0, 0, 0, time.UTC)
	stored := []domain.TripSummary{
		{ID: uuid.New(), EquipmentID: "EQ1", Origin: "Toronto", Destination: "Winnipeg", StartDateTime: &start, TotalTripHours: ptr(9.0), IsComplete: true},
		{ID: uuid.New(), EquipmentID: "EQ2", Origin: "Toronto", StartDateTime: &start},
		{ID: uuid.New(), EquipmentID: "EQ3"},
	}

	var gotParams domain.PaginationParams
	svc := service.NewTripService(&mockTripRepo{
		listPaged: func(_ context.Context, p domain.PaginationParams) ([]domain.TripSummary, int64, error) {
			gotParams = p
			return stored, 42, nil
		},
	})

	params := domain.NewPaginationParams(ptr(2), ptr(3))
	trips, total, err := svc.ListPaged(context.Background(), params)

	require.NoError(t, err)
	assert.Equal(t, params, gotParams)
	assert.Equal(t, int64(42), total)
	require.Len(t, trips, 3)

	assert.Equal(t, "Toronto", trips[0].Origin)
	assert.Equal(t, "Winnipeg", trips[0].Destination)

	assert.Equal(t, "Toronto", trips[1].Origin)
	assert.Equal(t, domain.InTransit, trips[1].Destination)

	assert.Equal(t, domain.UnknownOrigin, trips[2].Origin)
	assert.Equal(t, domain.InTransit, trips[2].Destination)
}

func TestTripService_ListPaged_EmptyIsNonNil(t *testing.T) {
	svc := service.NewTripService(&mockTripRepo{
		listPaged: func(_ context.Context, _ domain.PaginationParams) ([]domain.TripSummary, int64, error) {
			return nil, 0, nil
		},
	})

	trips, total, err := svc.ListPaged(context.Background(), domain.NewPaginationParams(nil, nil))

	require.NoError(t, err)
	assert.NotNil(t, trips, "callers must be able to encode an empty page as []")
	assert.Empty(t, trips)
	assert.Zero(t, total)
}

func TestTripService_ListPaged_RejectsOutOfRange(t *testing.T) {
	svc := service.NewTripService(&mockTripRepo{})

	for _, p := range []domain.PaginationParams{
		{Page: 0, Limit: 20},
		{Page: 1, Limit: 0},
		{Page: 1, Limit: domain.MaxPageLimit + 1},
	} {
		_, _, err := svc.ListPaged(context.Background(), p)
		assert.ErrorIs(t, err, domain.ErrValidation, "params %+v", p)
	}
}

func TestTripService_ListPaged_RepoError(t *testing.T) {
	boom := errors.New("connection reset")
	svc := service.NewTripService(&mockTripRepo{
		listPaged: func(_ context.Context, _ domain.PaginationParams) ([]domain.TripSummary, int64, error) {
			return nil, 0, boom
		},
	})

	_, _, err := svc.ListPaged(context.Background(), domain.NewPaginationParams(nil, nil))

	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "service.TripService.ListPaged")
}

// ---- GetByID ---------------------------------------------------------------

func TestTripService_GetByID_OK(t *testing.T) {
	id := uuid.New()
	svc := service.NewTripService(&mockTripRepo{
		getByID: func(_ context.Context, got uuid.UUID) (domain.TripDetail, error) {
			return domain.TripDetail{
				TripSummary: domain.TripSummary{ID: got, EquipmentID: "EQ1", Origin: "Toronto"},
			}, nil
		},
	})

	detail, err := svc.GetByID(context.Background(), id)

	require.NoError(t, err)
	assert.Equal(t, id, detail.ID)
	assert.Equal(t, domain.InTransit, detail.Destination)
	assert.NotNil(t, detail.Events)
}

func TestTripService_GetByID_NotFound(t *testing.T) {
	svc := service.NewTripService(&mockTripRepo{
		getByID: func(_ context.Context, _ uuid.UUID) (domain.TripDetail, error) {
			return domain.TripDetail{}, domain.ErrNotFound
		},
	})

	_, err := svc.GetByID(context.Background(), uuid.New())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}
