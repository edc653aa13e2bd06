// Package ingest reads uploaded equipment event feeds into raw records.
// It validates structure only (columns, integers, timestamps); reference
// lookups belong to the reconstruct package.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pkordes/railcar-trips/internal/domain"
)

// Column headers of the event feed.
const (
	ColEquipmentID = "Equipment Id"
	ColEventCode   = "Event Code"
	ColCityID      = "City Id"
	ColEventTime   = "Event Time"
)

// timeLayouts are the accepted Event Time formats, tried in order.
// None carries an offset: feed times are wall-clock at the event's city.
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
}

// RowError describes a row that could not be parsed. Line is the 1-based
// line number in the file, header included.
type RowError struct {
	Line   int
	Reason string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("Row %d: %s", e.Line, e.Reason)
}

// Batch is the parsed content of one feed.
type Batch struct {
	Records   []domain.RawEvent
	RowErrors []error
}

// Parse reads a CSV feed with a header row. Header names are matched
// case-insensitively after trimming; cells are trimmed; blank lines are
// skipped. Malformed rows are collected in RowErrors and parsing continues.
//
// Returns an error wrapping domain.ErrMissingColumn if a required header is
// absent, or the underlying error if the stream cannot be read.
func Parse(r io.Reader) (Batch, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return Batch{}, fmt.Errorf("ingest.Parse: empty file: %w", domain.ErrMissingColumn)
	}
	if err != nil {
		return Batch{}, fmt.Errorf("ingest.Parse: header: %w", err)
	}
	cols, err := indexColumns(header)
	if err != nil {
		return Batch{}, fmt.Errorf("ingest.Parse: %w", err)
	}

	var b Batch
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			b.RowErrors = append(b.RowErrors, &RowError{Line: perr.Line, Reason: perr.Err.Error()})
			continue
		}
		if err != nil {
			return Batch{}, fmt.Errorf("ingest.Parse: read: %w", err)
		}

		line, _ := cr.FieldPos(0)
		ev, rowErr := cols.parseRow(line, rec)
		if rowErr != nil {
			b.RowErrors = append(b.RowErrors, rowErr)
			continue
		}
		b.Records = append(b.Records, ev)
	}
	return b, nil
}

// columns holds the position of each required field in a record.
type columns struct {
	equipment, code, city, eventTime int
}

func indexColumns(header []string) (columns, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff")
		pos[strings.ToLower(strings.TrimSpace(h))] = i
	}

	var missing []string
	lookup := func(name string) int {
		i, ok := pos[strings.ToLower(name)]
		if !ok {
			missing = append(missing, name)
		}
		return i
	}
	c := columns{
		equipment: lookup(ColEquipmentID),
		code:      lookup(ColEventCode),
		city:      lookup(ColCityID),
		eventTime: lookup(ColEventTime),
	}
	if len(missing) > 0 {
		return columns{}, fmt.Errorf("%w: %s", domain.ErrMissingColumn, strings.Join(missing, ", "))
	}
	return c, nil
}

func (c columns) parseRow(line int, rec []string) (domain.RawEvent, error) {
	cell := func(i int) string {
		if i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	equipment, code, city, at := cell(c.equipment), cell(c.code), cell(c.city), cell(c.eventTime)
	for _, f := range []struct{ name, v string }{
		{ColEquipmentID, equipment},
		{ColEventCode, code},
		{ColCityID, city},
		{ColEventTime, at},
	} {
		if f.v == "" {
			return domain.RawEvent{}, &RowError{Line: line, Reason: "missing " + f.name}
		}
	}

	cityID, err := strconv.Atoi(city)
	if err != nil {
		return domain.RawEvent{}, &RowError{Line: line, Reason: fmt.Sprintf("invalid %s %q", ColCityID, city)}
	}
	local, err := ParseEventTime(at)
	if err != nil {
		return domain.RawEvent{}, &RowError{Line: line, Reason: fmt.Sprintf("invalid %s %q", ColEventTime, at)}
	}

	return domain.RawEvent{
		Line:        line,
		EquipmentID: equipment,
		EventCode:   code,
		LocationID:  cityID,
		LocalTime:   local,
	}, nil
}

// ParseEventTime parses a feed timestamp as wall-clock time in UTC.
func ParseEventTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q", s)
}
