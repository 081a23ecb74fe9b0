package domain

// OutcomeKind classifies the result of processing one appointment.
type OutcomeKind string

const (
	// OutcomeExtracted means a dated note was found and recorded.
	OutcomeExtracted OutcomeKind = "extracted"

	// OutcomeNoDocumentFound means no stored document matched the patient.
	OutcomeNoDocumentFound OutcomeKind = "no_document_found"

	// OutcomeNoNoteFound means documents matched but none held a note
	// for the appointment date.
	OutcomeNoNoteFound OutcomeKind = "no_note_found"

	// OutcomeError means a collaborator failed after retries.
	OutcomeError OutcomeKind = "error"
)

// ExtractionOutcome is the per-appointment result recorded in a run report.
type ExtractionOutcome struct {
	Kind           OutcomeKind `json:"kind"`
	Row            int         `json:"row"`
	PatientName    string      `json:"patient_name"`
	Date           string      `json:"date"`
	ClinicianLabel string      `json:"clinician_label,omitempty"`

	// Note is the extracted note text for OutcomeExtracted.
	Note string `json:"note,omitempty"`

	// SourceDocument names the document the note came from.
	SourceDocument string `json:"source_document,omitempty"`

	// CandidatesChecked lists the documents inspected for OutcomeNoNoteFound.
	CandidatesChecked []string `json:"candidates_checked,omitempty"`

	// Message carries the failure text for OutcomeError.
	Message string `json:"message,omitempty"`

	// Ambiguous is set when any candidate came from the similarity fallback.
	Ambiguous bool `json:"ambiguous,omitempty"`

	// Candidates holds the ambiguous candidates with their scores.
	Candidates []DocumentCandidate `json:"candidates,omitempty"`
}

// ClinicianKey returns the grouping key for reports.
func (o ExtractionOutcome) ClinicianKey() string {
	if o.ClinicianLabel == "" {
		return UnknownClinician
	}
	return o.ClinicianLabel
}

// UnknownClinician groups outcomes whose record carried no clinician label.
const UnknownClinician = "Unknown"
