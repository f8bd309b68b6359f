package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"inspection-tracker/internal/colmap"
	"inspection-tracker/internal/common"
	"inspection-tracker/internal/export"
	"inspection-tracker/internal/pipeline"
	"inspection-tracker/internal/repository"
	"inspection-tracker/internal/services/inspection"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	// Parse CLI flags
	var (
		file    = flag.String("file", "", "XLSX file to process")
		dir     = flag.String("dir", "", "directory of XLSX files to process")
		analyze = flag.Bool("analyze", false, "analyze the file without persisting anything")
		force   = flag.Bool("force", false, "reprocess files already seen")
		inmem   = flag.Bool("inmem", false, "use in-memory SQLite database")
		sheet   = flag.String("sheet", "", "sheet name (defaults to the first sheet)")
		out     = flag.String("out", "", "export processed inspections to this XLSX path")
		fromStr = flag.String("from", "", "export filter: from date YYYY-MM-DD")
		toStr   = flag.String("to", "", "export filter: to date YYYY-MM-DD")
	)
	flag.Parse()

	if *file == "" && *dir == "" {
		printError("Error: --file or --dir is required\n")
		os.Exit(1)
	}

	// Parse export date filters
	var from, to *time.Time
	if *fromStr != "" {
		parsed, err := time.Parse("2006-01-02", *fromStr)
		if err != nil {
			printError("Error: invalid --from date format, use YYYY-MM-DD: %v\n", err)
			os.Exit(1)
		}
		from = &parsed
	}
	if *toStr != "" {
		parsed, err := time.Parse("2006-01-02", *toStr)
		if err != nil {
			printError("Error: invalid --to date format, use YYYY-MM-DD: %v\n", err)
			os.Exit(1)
		}
		to = &parsed
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file loaded", "error", err)
	}

	ctx := context.Background()
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	store, cleanup, err := openStore(ctx, cfg, *inmem, logger)
	if err != nil {
		logger.Error("failed to initialize store", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	table, err := colmap.Load()
	if err != nil {
		logger.Error("failed to load column table", "error", err)
		os.Exit(1)
	}

	processor := pipeline.New(table, store, cfg.Pipeline, logger)
	svc := inspection.NewService(processor, store, logger)

	switch {
	case *analyze:
		if *file == "" {
			printError("Error: --analyze requires --file\n")
			os.Exit(1)
		}
		data, err := os.ReadFile(*file)
		if err != nil {
			logger.Error("cannot read file", "path", *file, "error", err)
			os.Exit(1)
		}
		a, err := svc.AnalyzeFile(ctx, filepath.Base(*file), data)
		if err != nil {
			logger.Error("analysis failed", "error", err)
			os.Exit(1)
		}
		fmt.Printf("File: %s\n", a.Filename)
		fmt.Printf("- Sheet: %s\n", a.SheetName)
		fmt.Printf("- Rows: %d\n", a.RowCount)
		fmt.Printf("- Period: %s %d (months %v)\n", a.Period.Type, a.Period.Year, a.Period.Months)
		fmt.Printf("- Existing records in period: %d\n", a.Period.Existing)
		fmt.Printf("- Already processed: %v\n", a.KnownFile)

	case *file != "":
		data, err := os.ReadFile(*file)
		if err != nil {
			logger.Error("cannot read file", "path", *file, "error", err)
			os.Exit(1)
		}
		result, err := svc.ProcessFile(ctx, inspection.ProcessFileRequest{
			Filename:       filepath.Base(*file),
			Data:           data,
			ForceReprocess: *force,
			SheetName:      *sheet,
		})
		if err != nil {
			logger.Error("processing failed", "error", err)
			os.Exit(1)
		}
		printResult(filepath.Base(*file), result.TotalRecords, result.NewRecords, result.DuplicateRecords, result.ErrorRecords)

	default:
		res, err := svc.ProcessDirectory(ctx, *dir, *force)
		if err != nil {
			logger.Error("directory processing failed", "error", err)
			os.Exit(1)
		}
		fmt.Printf("Directory processing complete!\n")
		fmt.Printf("- Scanned: %d\n", res.Scanned)
		fmt.Printf("- Processed: %d\n", res.Processed)
		fmt.Printf("- Failed: %d\n", res.Failed)
		for name, r := range res.Results {
			printResult(name, r.TotalRecords, r.NewRecords, r.DuplicateRecords, r.ErrorRecords)
		}
	}

	if *out != "" {
		filter := repository.InspectionFilter{From: from, To: to}
		xlsxBytes, err := export.NewService(store, logger).ExportInspectionsXLSX(ctx, filter)
		if err != nil {
			logger.Error("export failed", "error", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*out, xlsxBytes, 0644); err != nil {
			logger.Error("failed to write output file", "path", *out, "error", err)
			os.Exit(1)
		}
		fmt.Printf("Export written to %s\n", *out)
	}
}

func printResult(name string, total, inserted, dups, errs int) {
	fmt.Printf("%s: %d records (%d new, %d duplicates, %d errors)\n", name, total, inserted, dups, errs)
}

// openStore picks Postgres when DB_URL is set and SQLite otherwise.
func openStore(ctx context.Context, cfg *common.Config, inmem bool, logger *slog.Logger) (repository.Store, func(), error) {
	if inmem {
		s, err := repository.OpenSQLite(":memory:", logger)
		return s, func() {}, err
	}
	if cfg.Database.DSN != "" {
		pool, err := repository.Open(ctx, repository.Config{
			DSN:              cfg.Database.DSN,
			MaxConns:         cfg.Database.MaxConns,
			MinConns:         cfg.Database.MinConns,
			MaxConnLifetime:  cfg.Database.MaxConnLifetime,
			MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
			DialTimeout:      cfg.Database.DialTimeout,
			StatementTimeout: cfg.Database.StatementTimeout,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewPostgresStore(pool, logger), func() { repository.Close(pool, logger) }, nil
	}
	s, err := repository.OpenSQLite(cfg.Database.SQLitePath, logger)
	return s, func() {}, err
}
