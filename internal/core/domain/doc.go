// Package domain defines the core business entities for soapnotes.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - AppointmentRecord: One row of the practice's appointment sheet
//   - DocumentCandidate: A stored patient document that may hold the note
//   - CommentEntry: A comment or reply attached to a document
//   - ClinicianDirectory: The ordered alias table used for attribution
//   - ExtractionOutcome: The result of processing one appointment
//   - ReportSnapshot: The serialisable summary of a run
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
