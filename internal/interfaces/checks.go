package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/bookshelf/internal/audit"
	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/database"
	"github.com/mrlokans/bookshelf/internal/database/books"
	"github.com/mrlokans/bookshelf/internal/database/library"
	"github.com/mrlokans/bookshelf/internal/database/ratings"
	"github.com/mrlokans/bookshelf/internal/database/reviews"
	"github.com/mrlokans/bookshelf/internal/database/users"
	"github.com/mrlokans/bookshelf/internal/http"
	"github.com/mrlokans/bookshelf/internal/services"
	"github.com/mrlokans/bookshelf/internal/tasks"
)

// =============================================================================
// Data Access Layer
// =============================================================================

var _ services.UserStore = (*users.Repository)(nil)
var _ services.BookCatalog = (*books.Repository)(nil)
var _ services.ShelfStore = (*library.Repository)(nil)
var _ services.ReviewStore = (*reviews.Repository)(nil)
var _ services.RatingStore = (*ratings.Repository)(nil)

var _ services.SessionRecorder = (*database.Database)(nil)
var _ http.SessionLister = (*database.Database)(nil)
var _ http.Pinger = (*database.Database)(nil)

var _ auth.TokenLookup = (*users.Repository)(nil)

// =============================================================================
// Audit
// =============================================================================

var _ services.ImportAuditor = (*audit.Service)(nil)
var _ services.ExportAuditor = (*audit.Service)(nil)
var _ services.PayloadArchiver = (*audit.Archiver)(nil)
var _ tasks.AuditEventCleaner = (*audit.Service)(nil)

// =============================================================================
// Import / Export
// =============================================================================

var _ http.Importer = (*services.ImportService)(nil)
var _ http.Exporter = (*services.ExportService)(nil)
var _ tasks.SnapshotImporter = (*services.ImportService)(nil)

// =============================================================================
// Background Work
// =============================================================================

var _ http.TaskQueue = (*tasks.Client)(nil)
