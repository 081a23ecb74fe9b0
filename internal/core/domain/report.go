package domain

import "time"

// Summary holds per-kind outcome counts for a run.
type Summary struct {
	Total           int `json:"total"`
	Extracted       int `json:"extracted"`
	NoDocumentFound int `json:"no_document_found"`
	NoNoteFound     int `json:"no_note_found"`
	Errors          int `json:"errors"`
	Ambiguous       int `json:"ambiguous"`
}

// ReportSnapshot is the serialisable state of a finished (or interrupted) run.
type ReportSnapshot struct {
	RunID      string              `json:"run_id"`
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt time.Time           `json:"finished_at"`
	Cancelled  bool                `json:"cancelled,omitempty"`
	Summary    Summary             `json:"summary"`
	Outcomes   []ExtractionOutcome `json:"outcomes"`

	// ByClinician groups every outcome by clinician label.
	ByClinician map[string][]ExtractionOutcome `json:"by_clinician"`
}

// RunRecord is a persisted snapshot header used for listings.
type RunRecord struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Summary    Summary
}
