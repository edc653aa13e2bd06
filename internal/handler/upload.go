package handler

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/pkordes/railcar-trips/internal/domain"
)

// uploadField is the multipart form field carrying the CSV file.
const uploadField = "file"

// Messages returned in the report of a rejected upload.
const (
	msgNoFile = "No file uploaded"
	msgNotCSV = "File must be a CSV file"
)

// UploadTrips handles POST /api/trips/upload.
// A missing, empty or non-CSV file is rejected with 400 and a report holding
// one error. Anything else is processed and answered with 200, even when
// the report lists errors.
func (s *Server) UploadTrips(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile(uploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, codeTooLarge,
				fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit))
			return
		}
		rejectUpload(w, msgNoFile)
		return
	}
	defer file.Close()

	if header.Size == 0 {
		rejectUpload(w, msgNoFile)
		return
	}
	if !strings.EqualFold(filepath.Ext(header.Filename), ".csv") {
		rejectUpload(w, msgNotCSV)
		return
	}

	report := s.uploads.Upload(r.Context(), file)
	writeJSON(w, http.StatusOK, report)
}

func rejectUpload(w http.ResponseWriter, msg string) {
	report := domain.NewProcessingReport()
	report.AddError(msg)
	writeJSON(w, http.StatusBadRequest, report)
}
