// Package sqlite provides a SQLite-based implementation of the unit store
// and the annotation sink.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. Both ports share one database connection:
//
//   - UnitStore: Units with their tokens and wire annotations
//   - AnnotationSink: Writes posted annotations back to the unit and logs the delivery
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.annotator/data/units.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
