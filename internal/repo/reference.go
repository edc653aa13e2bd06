package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pkordes/railcar-trips/internal/domain"
)

// ReferenceRepo defines the persistence operations for the read-mostly
// reference tables: time zones, locations and event codes.
type ReferenceRepo interface {
	// ListLocations returns every location with its time zone's offset,
	// ordered by ID.
	ListLocations(ctx context.Context) ([]domain.Location, error)

	// ListEventCodes returns every event code definition ordered by code.
	ListEventCodes(ctx context.Context) ([]domain.EventCode, error)

	// HasTimeZones reports whether any time zone has been stored.
	HasTimeZones(ctx context.Context) (bool, error)

	// HasEventCodes reports whether any event code has been stored.
	HasEventCodes(ctx context.Context) (bool, error)

	// UpsertTimeZone inserts a time zone by name, or updates the offset of the
	// existing one, and returns the stored row.
	UpsertTimeZone(ctx context.Context, tz domain.TimeZone) (domain.TimeZone, error)

	// CreateLocation inserts a location linked to the given time zone ID.
	CreateLocation(ctx context.Context, loc domain.Location, timeZoneID int) error

	// CreateEventCode inserts an event code definition.
	CreateEventCode(ctx context.Context, ec domain.EventCode) error
}

// pgReferenceRepo is the Postgres implementation of ReferenceRepo.
type pgReferenceRepo struct {
	db db
}

// NewReferenceRepo constructs a ReferenceRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewReferenceRepo(db db) ReferenceRepo {
	return &pgReferenceRepo{db: db}
}

func (r *pgReferenceRepo) ListLocations(ctx context.Context) ([]domain.Location, error) {
	const q = `
		SELECT l.id, l.name, tz.name, tz.utc_offset
		FROM locations l
		JOIN time_zones tz ON tz.id = l.time_zone_id
		ORDER BY l.id`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("repo.ReferenceRepo.ListLocations: %w", err)
	}
	defer rows.Close()

	locations := []domain.Location{}
	for rows.Next() {
		var l domain.Location
		if err := rows.Scan(&l.ID, &l.Name, &l.TimeZone, &l.UTCOffset); err != nil {
			return nil, fmt.Errorf("repo.ReferenceRepo.ListLocations: scan: %w", err)
		}
		locations = append(locations, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.ReferenceRepo.ListLocations: rows: %w", err)
	}
	return locations, nil
}

func (r *pgReferenceRepo) ListEventCodes(ctx context.Context) ([]domain.EventCode, error) {
	const q = `
		SELECT code, description, long_description
		FROM event_codes
		ORDER BY code`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("repo.ReferenceRepo.ListEventCodes: %w", err)
	}
	defer rows.Close()

	codes := []domain.EventCode{}
	for rows.Next() {
		var ec domain.EventCode
		if err := rows.Scan(&ec.Code, &ec.Description, &ec.LongDescription); err != nil {
			return nil, fmt.Errorf("repo.ReferenceRepo.ListEventCodes: scan: %w", err)
		}
		codes = append(codes, ec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.ReferenceRepo.ListEventCodes: rows: %w", err)
	}
	return codes, nil
}

func (r *pgReferenceRepo) HasTimeZones(ctx context.Context) (bool, error) {
	var ok bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM time_zones)`).Scan(&ok); err != nil {
		return false, fmt.Errorf("repo.ReferenceRepo.HasTimeZones: %w", err)
	}
	return ok, nil
}

func (r *pgReferenceRepo) HasEventCodes(ctx context.Context) (bool, error) {
	var ok bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM event_codes)`).Scan(&ok); err != nil {
		return false, fmt.Errorf("repo.ReferenceRepo.HasEventCodes: %w", err)
	}
	return ok, nil
}

// UpsertTimeZone keeps one row per zone name; re-seeding refreshes the offset.
func (r *pgReferenceRepo) UpsertTimeZone(ctx context.Context, tz domain.TimeZone) (domain.TimeZone, error) {
	const q = `
		INSERT INTO time_zones (name, utc_offset, updated_at)
		VALUES (@name, @utc_offset, @updated_at)
		ON CONFLICT (name) DO UPDATE
		    SET utc_offset = EXCLUDED.utc_offset,
		        updated_at = EXCLUDED.updated_at
		RETURNING id, name, utc_offset, updated_at`

	args := pgx.NamedArgs{
		"name":       tz.Name,
		"utc_offset": tz.UTCOffset,
		"updated_at": tz.UpdatedAt,
	}

	var out domain.TimeZone
	err := r.db.QueryRow(ctx, q, args).Scan(&out.ID, &out.Name, &out.UTCOffset, &out.UpdatedAt)
	if err != nil {
		return domain.TimeZone{}, fmt.Errorf("repo.ReferenceRepo.UpsertTimeZone: %w", err)
	}
	return out, nil
}

func (r *pgReferenceRepo) CreateLocation(ctx context.Context, loc domain.Location, timeZoneID int) error {
	const q = `
		INSERT INTO locations (id, name, time_zone_id)
		VALUES (@id, @name, @time_zone_id)`

	_, err := r.db.Exec(ctx, q, pgx.NamedArgs{
		"id":           loc.ID,
		"name":         loc.Name,
		"time_zone_id": timeZoneID,
	})
	if err != nil {
		return fmt.Errorf("repo.ReferenceRepo.CreateLocation: %w", err)
	}
	return nil
}

func (r *pgReferenceRepo) CreateEventCode(ctx context.Context, ec domain.EventCode) error {
	const q = `
		INSERT INTO event_codes (code, description, long_description)
		VALUES (@code, @description, @long_description)`

	_, err := r.db.Exec(ctx, q, pgx.NamedArgs{
		"code":             ec.Code,
		"description":      ec.Description,
		"long_description": ec.LongDescription,
	})
	if err != nil {
		return fmt.Errorf("repo.ReferenceRepo.CreateEventCode: %w", err)
	}
	return nil
}
