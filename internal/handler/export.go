package handler

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/oapi-codegen/runtime"

	"github.com/pkordes/railcar-trips/internal/domain"
)

// Export formats accepted by ?format=.
const (
	formatJSON = "json"
	formatCSV  = "csv"
)

// localTimeLayout renders wall-clock times, which carry no offset.
const localTimeLayout = "2006-01-02T15:04:05"

// csvHeaders defines the column names written as the first row of the CSV export.
var csvHeaders = []string{
	"trip_id", "equipment_id", "origin", "destination",
	"trip_start_utc", "trip_end_utc", "total_trip_hours", "is_complete",
	"event_code", "city_name", "event_time_local", "event_time_utc",
}

// exportRow is the JSON shape of one export row.
type exportRow struct {
	TripID         string     `json:"tripId"`
	EquipmentID    string     `json:"equipmentId"`
	Origin         string     `json:"origin"`
	Destination    string     `json:"destination"`
	TripStart      *time.Time `json:"tripStart"`
	TripEnd        *time.Time `json:"tripEnd"`
	TotalTripHours *float64   `json:"totalTripHours"`
	IsComplete     bool       `json:"isComplete"`
	EventCode      string     `json:"eventCode"`
	CityName       string     `json:"cityName"`
	EventTimeLocal string     `json:"eventTimeLocal"`
	EventTimeUTC   time.Time  `json:"eventTimeUtc"`
}

// ExportTrips handles GET /api/trips/export?format=json|csv.
// The default format is JSON.
func (s *Server) ExportTrips(w http.ResponseWriter, r *http.Request) {
	var format *string
	if err := runtime.BindQueryParameter("form", true, false, "format", r.URL.Query(), &format); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, fmt.Sprintf("invalid format: %v", err))
		return
	}
	f := formatJSON
	if format != nil {
		f = *format
	}
	if f != formatJSON && f != formatCSV {
		writeError(w, http.StatusBadRequest, codeValidation, fmt.Sprintf("unsupported format %q: use json or csv", f))
		return
	}

	rows, err := s.export.Export(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}

	if f == formatCSV {
		writeCSV(w, rows)
		return
	}
	out := make([]exportRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, toExportRow(row))
	}
	writeJSON(w, http.StatusOK, out)
}

// writeCSV buffers the whole export so a write error cannot leave a
// truncated file behind a 200 status.
func writeCSV(w http.ResponseWriter, rows []domain.ExportRow) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	_ = cw.Write(csvHeaders)
	for _, row := range rows {
		_ = cw.Write(csvRecord(row))
	}
	cw.Flush()

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="trips.csv"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func toExportRow(r domain.ExportRow) exportRow {
	return exportRow{
		TripID:         r.TripID,
		EquipmentID:    r.EquipmentID,
		Origin:         r.Origin,
		Destination:    r.Destination,
		TripStart:      r.TripStart,
		TripEnd:        r.TripEnd,
		TotalTripHours: r.TotalTripHours,
		IsComplete:     r.IsComplete,
		EventCode:      r.EventCode,
		CityName:       r.CityName,
		EventTimeLocal: r.EventTimeLocal.Format(localTimeLayout),
		EventTimeUTC:   r.EventTimeUTC.UTC(),
	}
}

// csvRecord flattens r. Nil times and hours become empty cells.
func csvRecord(r domain.ExportRow) []string {
	hours := ""
	if r.TotalTripHours != nil {
		hours = strconv.FormatFloat(*r.TotalTripHours, 'f', 2, 64)
	}
	return []string{
		r.TripID,
		r.EquipmentID,
		r.Origin,
		r.Destination,
		formatOptionalTime(r.TripStart),
		formatOptionalTime(r.TripEnd),
		hours,
		strconv.FormatBool(r.IsComplete),
		r.EventCode,
		r.CityName,
		r.EventTimeLocal.Format(localTimeLayout),
		r.EventTimeUTC.UTC().Format(time.RFC3339),
	}
}

// formatOptionalTime returns the RFC3339 representation of t, or "" if t is nil.
func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
