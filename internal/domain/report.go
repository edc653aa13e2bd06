package domain

// ProcessingReport is the outcome of one upload.
// ErrorCount always equals len(Errors). SuccessCount is only non-zero once
// the batch has been committed to the store.
type ProcessingReport struct {
	EventsProcessed int      `json:"eventsProcessed"`
	TripsCreated    int      `json:"tripsCreated"`
	SuccessCount    int      `json:"successCount"`
	ErrorCount      int      `json:"errorCount"`
	Warnings        []string `json:"warnings"`
	Errors          []string `json:"errors"`
}

// NewProcessingReport returns an empty report whose lists encode as [] rather than null.
func NewProcessingReport() ProcessingReport {
	return ProcessingReport{Warnings: []string{}, Errors: []string{}}
}

// AddError appends msg to Errors and keeps ErrorCount in step.
func (r *ProcessingReport) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.ErrorCount = len(r.Errors)
}
