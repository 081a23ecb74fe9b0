package domain

import "time"

// SignableDocument is an editable note document awaiting a clinician signature.
type SignableDocument struct {
	ID           string
	Name         string
	ModifiedTime time.Time
}

// SigningStatus classifies the result of signing one document.
type SigningStatus string

const (
	SigningSigned        SigningStatus = "signed"
	SigningAlreadySigned SigningStatus = "already_signed"
	SigningUnattributed  SigningStatus = "unattributed"
	SigningFailed        SigningStatus = "failed"
)

// SigningResult records the outcome for one document.
type SigningResult struct {
	DocumentID string
	Name       string
	Clinician  string
	Status     SigningStatus
	Err        string
}

// SigningSummary aggregates a signing pass.
type SigningSummary struct {
	Signed        int
	AlreadySigned int
	Unattributed  int
	Failed        int
	Results       []SigningResult
}

// Add records a result and updates the counters.
func (s *SigningSummary) Add(r SigningResult) {
	s.Results = append(s.Results, r)
	switch r.Status {
	case SigningSigned:
		s.Signed++
	case SigningAlreadySigned:
		s.AlreadySigned++
	case SigningUnattributed:
		s.Unattributed++
	case SigningFailed:
		s.Failed++
	}
}

// PublishSummary aggregates an export-and-upload pass.
type PublishSummary struct {
	Uploaded int
	Existing int
	Trashed  int
	Failed   int
}
