// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for an extraction run:
//
//   - AppointmentSheet: Reads appointment rows and writes notes back
//   - DocumentSearcher: Searches the document store by filename
//   - CommentReader: Lists comments attached to a document
//   - RunStore: Persists run report snapshots
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - Notifier: Delivers the plain-text run report. Without it the report is only logged.
//   - NoteDocuments, SignatureAssets: Needed by the signing workflow only.
//   - DocumentExporter, Archive: Needed by the filing workflows only.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
