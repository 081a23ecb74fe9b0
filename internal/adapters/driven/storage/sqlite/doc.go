// Package sqlite persists run reports and scheduler state in SQLite.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. One database connection backs:
//
//   - RunStore: Run report snapshots
//   - SchedulerStore: Scheduled task state and execution history
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory and embedded at compile time.
//
// # Data Location
//
// By default, the database is stored at ~/.soapnotes/soapnotes.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
