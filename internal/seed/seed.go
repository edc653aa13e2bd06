// Package seed loads the reference tables (time zones, locations and event
// codes) from CSV files on first start.
//
// Each table group is seeded only while it is empty, so restarts and
// redeploys never duplicate or overwrite reference data.
package seed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jonboulle/clockwork"

	"github.com/pkordes/railcar-trips/internal/domain"
	"github.com/pkordes/railcar-trips/internal/reconstruct"
	"github.com/pkordes/railcar-trips/internal/repo"
)

// Seed file names inside the seed directory.
const (
	CitiesFile     = "canadian_cities.csv"
	EventCodesFile = "event_code_definitions.csv"
)

type cityRow struct {
	ID       int    `validate:"gt=0"`
	Name     string `validate:"required,max=100"`
	TimeZone string `validate:"required,max=100"`
}

type eventCodeRow struct {
	Code            string `validate:"required,max=10"`
	Description     string `validate:"required,max=100"`
	LongDescription string `validate:"max=500"`
}

// Seeder fills empty reference tables from a directory of CSV files.
type Seeder struct {
	refs     repo.ReferenceRepo
	fsys     fs.FS
	zones    ZoneTable
	validate *validator.Validate
	clock    clockwork.Clock
	logger   *slog.Logger
}

// NewValidator returns a validator with the "utcoffset" tag registered.
func NewValidator() *validator.Validate {
	v := validator.New()
	// RegisterValidation only fails for an empty or reserved tag name.
	_ = v.RegisterValidation("utcoffset", func(fl validator.FieldLevel) bool {
		_, err := reconstruct.ParseOffset(fl.Field().String())
		return err == nil
	})
	return v
}

// New constructs a Seeder reading seed files from fsys.
func New(refs repo.ReferenceRepo, fsys fs.FS, clock clockwork.Clock, logger *slog.Logger) (*Seeder, error) {
	v := NewValidator()
	zones, err := LoadZoneTable(v)
	if err != nil {
		return nil, err
	}
	return &Seeder{
		refs:     refs,
		fsys:     fsys,
		zones:    zones,
		validate: v,
		clock:    clock,
		logger:   logger,
	}, nil
}

// Run seeds time zones with locations, then event codes.
func (s *Seeder) Run(ctx context.Context) error {
	hasZones, err := s.refs.HasTimeZones(ctx)
	if err != nil {
		return fmt.Errorf("seed.Seeder.Run: %w", err)
	}
	if !hasZones {
		if err := s.seedLocations(ctx); err != nil {
			return fmt.Errorf("seed.Seeder.Run: %w", err)
		}
	}

	hasCodes, err := s.refs.HasEventCodes(ctx)
	if err != nil {
		return fmt.Errorf("seed.Seeder.Run: %w", err)
	}
	if !hasCodes {
		if err := s.seedEventCodes(ctx); err != nil {
			return fmt.Errorf("seed.Seeder.Run: %w", err)
		}
	}
	return nil
}

func (s *Seeder) seedLocations(ctx context.Context) error {
	rows, err := s.readTable(CitiesFile, "City Id", "City Name", "Time Zone")
	if err != nil || rows == nil {
		return err
	}

	var cities []cityRow
	for _, r := range rows {
		id, err := strconv.Atoi(r.cells[0])
		if err != nil {
			s.skip(CitiesFile, r.line, fmt.Sprintf("invalid City Id %q", r.cells[0]))
			continue
		}
		c := cityRow{ID: id, Name: r.cells[1], TimeZone: r.cells[2]}
		if err := s.validate.Struct(c); err != nil {
			s.skip(CitiesFile, r.line, err.Error())
			continue
		}
		cities = append(cities, c)
	}

	zoneIDs := make(map[string]int)
	now := s.clock.Now().UTC()
	for _, c := range cities {
		if _, ok := zoneIDs[c.TimeZone]; ok {
			continue
		}
		tz, err := s.refs.UpsertTimeZone(ctx, domain.TimeZone{
			Name:      c.TimeZone,
			UTCOffset: s.zones.Offset(c.TimeZone),
			UpdatedAt: now,
		})
		if err != nil {
			return err
		}
		zoneIDs[c.TimeZone] = tz.ID
	}

	for _, c := range cities {
		loc := domain.Location{ID: c.ID, Name: c.Name, TimeZone: c.TimeZone}
		if err := s.refs.CreateLocation(ctx, loc, zoneIDs[c.TimeZone]); err != nil {
			return err
		}
	}

	s.logger.InfoContext(ctx, "seeded locations", "time_zones", len(zoneIDs), "locations", len(cities))
	return nil
}

func (s *Seeder) seedEventCodes(ctx context.Context) error {
	rows, err := s.readTable(EventCodesFile, "Event Code", "Event Description", "Long Description")
	if err != nil || rows == nil {
		return err
	}

	n := 0
	for _, r := range rows {
		ec := eventCodeRow{Code: r.cells[0], Description: r.cells[1], LongDescription: r.cells[2]}
		if err := s.validate.Struct(ec); err != nil {
			s.skip(EventCodesFile, r.line, err.Error())
			continue
		}
		err := s.refs.CreateEventCode(ctx, domain.EventCode{
			Code:            ec.Code,
			Description:     ec.Description,
			LongDescription: ec.LongDescription,
		})
		if err != nil {
			return err
		}
		n++
	}

	s.logger.InfoContext(ctx, "seeded event codes", "event_codes", n)
	return nil
}

func (s *Seeder) skip(file string, line int, reason string) {
	s.logger.Warn("seed: skipping row", "file", file, "line", line, "reason", reason)
}

type tableRow struct {
	line  int
	cells []string
}

// readTable reads name and returns its rows projected onto columns, in that
// order. A missing file logs a warning and returns no rows and no error.
func (s *Seeder) readTable(name string, columns ...string) ([]tableRow, error) {
	f, err := s.fsys.Open(name)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("seed file not found", "file", name)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	s.logger.Info("seeding reference data", "file", name)

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read %s header: %w", name, err)
	}
	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	idx := make([]int, len(columns))
	for i, c := range columns {
		p, ok := pos[strings.ToLower(c)]
		if !ok {
			return nil, fmt.Errorf("%s: %w: %s", name, domain.ErrMissingColumn, c)
		}
		idx[i] = p
	}

	rows := []tableRow{}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		line, _ := cr.FieldPos(0)
		cells := make([]string, len(idx))
		for i, p := range idx {
			if p < len(rec) {
				cells[i] = strings.TrimSpace(rec[p])
			}
		}
		rows = append(rows, tableRow{line: line, cells: cells})
	}
	return rows, nil
}
