package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/mrlokans/bookshelf/internal/audit"
	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/database"
	auditrepo "github.com/mrlokans/bookshelf/internal/database/audit"
	"github.com/mrlokans/bookshelf/internal/importers"
	"github.com/mrlokans/bookshelf/internal/logger"
	"github.com/mrlokans/bookshelf/internal/services"
)

// ImportCommand merges an exported JSON or CSV file into a user's data.
type ImportCommand struct {
	UserID       uint
	FilePath     string
	Format       string
	DatabasePath string
	DefaultShelf string
	Verbose      bool
}

func NewImportCommand() *ImportCommand {
	return &ImportCommand{}
}

func (cmd *ImportCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)

	var userID uint64
	fs.Uint64Var(&userID, "user", 0, "ID of the user to import into (required)")
	fs.StringVar(&cmd.FilePath, "file", "", "Path to the exported JSON or CSV file (required)")
	fs.StringVar(&cmd.Format, "format", "", "Input format: json or csv (default: from the file extension)")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")
	fs.StringVar(&cmd.DefaultShelf, "shelf", config.DefaultShelfName, "Shelf for entries that name none")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Log every skipped entry")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s import -user <id> -file <path> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Merge a previously exported file into a user's shelves, reviews and ratings.\n")
		fmt.Fprintf(os.Stderr, "Entries that already exist are left untouched.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s import -user 1 -file export.json\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s import -user 1 -file backup.txt -format csv\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if userID == 0 {
		return fmt.Errorf("required flag -user not provided")
	}
	if cmd.FilePath == "" {
		return fmt.Errorf("required flag -file not provided")
	}
	cmd.UserID = uint(userID)

	if cmd.Format == "" {
		cmd.Format = formatFromExtension(cmd.FilePath)
	}
	if _, err := importers.ParseFormat(cmd.Format); err != nil {
		return fmt.Errorf("cannot determine input format, use -format json|csv: %w", err)
	}

	return nil
}

func (cmd *ImportCommand) Run() error {
	log := logger.NewConsole(cmd.Verbose)
	defer func() { _ = log.Sync() }()

	format, err := importers.ParseFormat(cmd.Format)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(cmd.FilePath)
	if err != nil {
		return fmt.Errorf("failed to read import file: %w", err)
	}

	absDBPath, err := filepath.Abs(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for database: %w", err)
	}

	db, err := database.NewDatabase(absDBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	auditService := audit.NewService(auditrepo.NewRepository(db.DB), log)
	defer auditService.Wait()

	importService := services.NewImportService(services.NewStores(db.DB), cmd.DefaultShelf, log).
		WithSessions(db).
		WithAuditor(auditService)

	log.Info("importing",
		zap.String("file", cmd.FilePath),
		zap.String("format", string(format)),
		zap.Uint("user_id", cmd.UserID),
		zap.String("database", absDBPath),
	)

	summary, err := importService.Import(context.Background(), cmd.UserID, format, data)
	if err != nil {
		return err
	}

	printSummary(summary)
	return nil
}

func printSummary(summary *services.Summary) {
	fmt.Println("\n=== Import Summary ===")
	fmt.Printf("Profile: %s\n", summary.Profile)
	for _, row := range []struct {
		name string
		c    services.CollectionSummary
	}{
		{"Shelves", summary.Shelves},
		{"Reviews", summary.Reviews},
		{"Ratings", summary.Ratings},
	} {
		fmt.Printf("%-8s applied %d, already present %d, skipped %d, failed %d\n",
			row.name+":", row.c.Applied, row.c.Conflicts, row.c.Skipped, row.c.Failed)
	}
	if summary.Partial() {
		fmt.Println("\nSome entries were not imported; run with -verbose for details.")
	}
}

func formatFromExtension(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}
