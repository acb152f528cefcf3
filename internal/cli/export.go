package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mrlokans/bookshelf/internal/audit"
	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/database"
	auditrepo "github.com/mrlokans/bookshelf/internal/database/audit"
	"github.com/mrlokans/bookshelf/internal/importers"
	"github.com/mrlokans/bookshelf/internal/logger"
	"github.com/mrlokans/bookshelf/internal/services"
)

// ExportCommand writes a user's data in a format the import command accepts.
type ExportCommand struct {
	UserID       uint
	Format       string
	OutputPath   string
	DatabasePath string
	Verbose      bool
}

func NewExportCommand() *ExportCommand {
	return &ExportCommand{}
}

func (cmd *ExportCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)

	var userID uint64
	fs.Uint64Var(&userID, "user", 0, "ID of the user to export (required)")
	fs.StringVar(&cmd.Format, "format", string(importers.FormatJSON), "Output format: json or csv")
	fs.StringVar(&cmd.OutputPath, "out", "", "Output file (default: stdout)")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Enable verbose logging")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s export -user <id> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Export a user's profile, shelves, reviews and ratings.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s export -user 1 -format csv -out backup.csv\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if userID == 0 {
		return fmt.Errorf("required flag -user not provided")
	}
	cmd.UserID = uint(userID)

	if _, err := importers.ParseFormat(cmd.Format); err != nil {
		return err
	}
	return nil
}

func (cmd *ExportCommand) Run() error {
	log := logger.NewConsole(cmd.Verbose)
	defer func() { _ = log.Sync() }()

	format, err := importers.ParseFormat(cmd.Format)
	if err != nil {
		return err
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

	exportService := services.NewExportService(services.NewStores(db.DB), log).
		WithAuditor(auditService)

	var out io.Writer = os.Stdout
	if cmd.OutputPath != "" {
		file, err := os.Create(cmd.OutputPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer file.Close()
		out = file
	}

	if err := exportService.Export(context.Background(), cmd.UserID, format, out); err != nil {
		return err
	}

	if cmd.OutputPath != "" {
		fmt.Fprintf(os.Stderr, "Exported user %d to %s\n", cmd.UserID, cmd.OutputPath)
	}
	return nil
}
