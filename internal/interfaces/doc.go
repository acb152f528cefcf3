// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Import Collaborators (internal/services/interfaces.go)
//
//   - UserStore: user lookup and profile update
//   - BookCatalog: book lookup by id and title search
//   - ShelfStore, ReviewStore, RatingStore: per-user writes, one transaction each
//   - SessionRecorder: import session bookkeeping
//   - ImportAuditor, ExportAuditor, PayloadArchiver: audit trail
//
// ## HTTP (internal/http/config.go)
//
//   - Importer, Exporter: the services behind /api/import and /api/export
//   - TaskQueue: background imports and maintenance tasks
//   - SessionLister: import history
//
// ## Background Work
//
//   - SnapshotImporter: what the import_snapshot queue calls (internal/tasks)
//   - AuditEventCleaner: what the cleanup_audit_events queue calls (internal/tasks)
//
// # Adding a New Import Format
//
//  1. Add a Format constant and a parser in internal/importers that returns a
//     *Snapshot or a *MalformedInputError.
//
//  2. Dispatch to it from importers.Parse and accept it in ParseFormat.
//
//  3. Teach exporters.Write to produce it so exports keep round-tripping.
//
// # Adding a New Store
//
//  1. Create sub-package: internal/database/<domain>/
//
//  2. Define repository:
//
//     type Repository struct { db *gorm.DB }
//
//     func NewRepository(db *gorm.DB) *Repository
//
//  3. Translate gorm errors to entities.ErrNotFound / entities.ErrConflict
//
//  4. Add compile-time check:
//
//     var _ services.SomeStore = (*Repository)(nil)
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// This pattern is used throughout the codebase. See checks.go for examples.
package interfaces
