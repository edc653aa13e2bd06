package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/railcar-trips/internal/domain"
)

// TripRepo defines the persistence operations for Trips and their Events.
// The service layer depends on this interface, not the concrete Postgres implementation,
// which allows the service to be unit-tested with a mock.
type TripRepo interface {
	// SaveBatch stores all trips and then all events of one upload in a single
	// transaction. Either everything is committed or nothing is.
	SaveBatch(ctx context.Context, trips []domain.Trip, events []domain.Event) error

	// ListPaged returns one page of trips ordered by start time descending
	// (most recent first, trips without a start last) and the total count.
	// Origin and Destination are empty when the trip has none.
	ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.TripSummary, int64, error)

	// GetByID retrieves a trip with its events ordered by UTC time.
	// Returns domain.ErrNotFound if no trip with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.TripDetail, error)

	// Export returns one row per event of every trip, trips ordered as in
	// ListPaged and events by UTC time.
	Export(ctx context.Context) ([]domain.ExportRow, error)
}

// pgTripRepo is the Postgres implementation of TripRepo.
type pgTripRepo struct {
	db txDB
}

// NewTripRepo constructs a TripRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewTripRepo(db txDB) TripRepo {
	return &pgTripRepo{db: db}
}

var tripColumns = []string{
	"id", "equipment_id", "origin_location_id", "destination_location_id",
	"start_time", "end_time", "duration_seconds", "is_complete", "created_at",
}

var eventColumns = []string{
	"equipment_id", "event_code", "location_id", "event_time_local", "event_time_utc", "trip_id",
}

// SaveBatch bulk-loads trips first so the events' trip_id foreign keys resolve.
func (r *pgTripRepo) SaveBatch(ctx context.Context, trips []domain.Trip, events []domain.Event) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repo.TripRepo.SaveBatch: begin: %w", err)
	}
	// Rollback after a successful Commit is a no-op.
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.CopyFrom(ctx, pgx.Identifier{"trips"}, tripColumns,
		pgx.CopyFromSlice(len(trips), func(i int) ([]any, error) {
			t := trips[i]
			return []any{
				pgtype.UUID{Bytes: t.ID, Valid: true},
				t.EquipmentID,
				t.OriginLocationID,
				t.DestinationLocationID,
				t.StartTime,
				t.EndTime,
				durationSeconds(t.Duration),
				t.IsComplete,
				t.CreatedAt,
			}, nil
		}))
	if err != nil {
		return fmt.Errorf("repo.TripRepo.SaveBatch: copy trips: %w", err)
	}

	_, err = tx.CopyFrom(ctx, pgx.Identifier{"events"}, eventColumns,
		pgx.CopyFromSlice(len(events), func(i int) ([]any, error) {
			e := events[i]
			tripID := pgtype.UUID{}
			if e.TripID != nil {
				tripID = pgtype.UUID{Bytes: *e.TripID, Valid: true}
			}
			return []any{
				e.EquipmentID,
				e.EventCode,
				e.LocationID,
				e.LocalTime,
				e.UTCTime,
				tripID,
			}, nil
		}))
	if err != nil {
		return fmt.Errorf("repo.TripRepo.SaveBatch: copy events: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("repo.TripRepo.SaveBatch: commit: %w", err)
	}
	return nil
}

const tripSummarySelect = `
		SELECT t.id, t.equipment_id, o.name, d.name,
		       t.start_time, t.end_time, t.duration_seconds, t.is_complete
		FROM trips t
		LEFT JOIN locations o ON o.id = t.origin_location_id
		LEFT JOIN locations d ON d.id = t.destination_location_id`

func (r *pgTripRepo) ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.TripSummary, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM trips`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.ListPaged: count: %w", err)
	}

	q := tripSummarySelect + `
		ORDER BY t.start_time DESC NULLS LAST, t.id
		LIMIT @limit OFFSET @offset`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"limit": p.Limit, "offset": p.Offset()})
	if err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.ListPaged: %w", err)
	}
	defer rows.Close()

	trips := []domain.TripSummary{}
	for rows.Next() {
		s, err := scanTripSummary(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repo.TripRepo.ListPaged: scan: %w", err)
		}
		trips = append(trips, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.ListPaged: rows: %w", err)
	}
	return trips, total, nil
}

func (r *pgTripRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.TripDetail, error) {
	row := r.db.QueryRow(ctx, tripSummarySelect+` WHERE t.id = @id`, pgx.NamedArgs{"id": id})
	summary, err := scanTripSummary(row)
	if err != nil {
		return domain.TripDetail{}, fmt.Errorf("repo.TripRepo.GetByID: %w", err)
	}

	const q = `
		SELECT e.id, e.equipment_id, e.event_code, ec.description, l.name,
		       e.event_time_local, e.event_time_utc
		FROM events e
		JOIN event_codes ec ON ec.code = e.event_code
		JOIN locations l ON l.id = e.location_id
		WHERE e.trip_id = @id
		ORDER BY e.event_time_utc, e.id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return domain.TripDetail{}, fmt.Errorf("repo.TripRepo.GetByID: events: %w", err)
	}
	defer rows.Close()

	detail := domain.TripDetail{TripSummary: summary, Events: []domain.EventView{}}
	for rows.Next() {
		var e domain.EventView
		if err := rows.Scan(&e.ID, &e.EquipmentID, &e.EventCode, &e.EventDescription,
			&e.CityName, &e.EventTimeLocal, &e.EventTimeUTC); err != nil {
			return domain.TripDetail{}, fmt.Errorf("repo.TripRepo.GetByID: scan event: %w", err)
		}
		detail.Events = append(detail.Events, e)
	}
	if err := rows.Err(); err != nil {
		return domain.TripDetail{}, fmt.Errorf("repo.TripRepo.GetByID: rows: %w", err)
	}
	return detail, nil
}

func (r *pgTripRepo) Export(ctx context.Context) ([]domain.ExportRow, error) {
	const q = `
		SELECT t.id, t.equipment_id, o.name, d.name,
		       t.start_time, t.end_time, t.duration_seconds, t.is_complete,
		       e.event_code, l.name, e.event_time_local, e.event_time_utc
		FROM trips t
		JOIN events e ON e.trip_id = t.id
		JOIN locations l ON l.id = e.location_id
		LEFT JOIN locations o ON o.id = t.origin_location_id
		LEFT JOIN locations d ON d.id = t.destination_location_id
		ORDER BY t.start_time DESC NULLS LAST, t.id, e.event_time_utc, e.id`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("repo.TripRepo.Export: %w", err)
	}
	defer rows.Close()

	out := []domain.ExportRow{}
	for rows.Next() {
		var (
			row          domain.ExportRow
			id           pgtype.UUID
			origin, dest pgtype.Text
			start, end   pgtype.Timestamptz
			seconds      pgtype.Int8
		)
		err := rows.Scan(&id, &row.EquipmentID, &origin, &dest, &start, &end, &seconds, &row.IsComplete,
			&row.EventCode, &row.CityName, &row.EventTimeLocal, &row.EventTimeUTC)
		if err != nil {
			return nil, fmt.Errorf("repo.TripRepo.Export: scan: %w", err)
		}
		row.TripID = uuid.UUID(id.Bytes).String()
		row.Origin, row.Destination = origin.String, dest.String
		row.TripStart, row.TripEnd = optionalTime(start), optionalTime(end)
		row.TotalTripHours = hours(seconds)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.TripRepo.Export: rows: %w", err)
	}
	return out, nil
}

// scanTripSummary maps a single row of tripSummarySelect into a domain.TripSummary.
// It handles the UUID and the nullable location, time and duration columns.
func scanTripSummary(s scanner) (domain.TripSummary, error) {
	var (
		t            domain.TripSummary
		id           pgtype.UUID
		origin, dest pgtype.Text
		start, end   pgtype.Timestamptz
		seconds      pgtype.Int8
	)

	err := s.Scan(&id, &t.EquipmentID, &origin, &dest, &start, &end, &seconds, &t.IsComplete)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.TripSummary{}, domain.ErrNotFound
		}
		return domain.TripSummary{}, err
	}

	t.ID = uuid.UUID(id.Bytes)
	t.Origin, t.Destination = origin.String, dest.String
	t.StartDateTime, t.EndDateTime = optionalTime(start), optionalTime(end)
	t.TotalTripHours = hours(seconds)
	return t, nil
}

func durationSeconds(d *time.Duration) *int64 {
	if d == nil {
		return nil
	}
	s := int64(d.Seconds())
	return &s
}

func optionalTime(ts pgtype.Timestamptz) *time.Time {
	if !ts.Valid {
		return nil
	}
	t := ts.Time.UTC()
	return &t
}

func hours(seconds pgtype.Int8) *float64 {
	if !seconds.Valid {
		return nil
	}
	h := float64(seconds.Int64) / 3600
	return &h
}
