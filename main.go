package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"energy-scraper/config"
	"energy-scraper/models"
	"energy-scraper/pipeline"
	"energy-scraper/scraper/ree"
	"energy-scraper/server"
	"energy-scraper/services"
	"energy-scraper/storage"
	"energy-scraper/utils"
)

const usage = `Usage: energy-scraper <command> [flags]

Commands:
  fetch    -category demand -start 2024-01-01 -end 2024-01-07 [-subset renewable] [-csv] [-stats Real]
  compare  -a demand -b price -start 2024-01-01 -end 2024-01-07 [-a-subset ..] [-b-subset ..] [-csv]
  serve    run the HTTP API
  purge    delete snapshots older than SNAPSHOT_TTL
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	// ================== Bootstrap ====================
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	logger := utils.NewLogger(cfg.LogLevel)

	catalog, err := config.LoadCatalog()
	if err != nil {
		logger.Error("Failed to load category catalog: %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	renderer := ree.NewChromeRenderer(cfg.RenderTimeout, cfg.ChromePath, logger)
	p := pipeline.New(cfg, catalog, renderer, nil, logger)

	logger.Info("Spanish Energy Data Scraper")
	logger.Debug("Concurrency: %d | Rate delay: %dms | Retries: %d",
		cfg.MaxConcurrency, cfg.RateLimitDelay, cfg.MaxRetries)

	var runErr error
	switch os.Args[1] {
	case "fetch":
		runErr = runFetch(ctx, cfg, p, logger, os.Args[2:])
	case "compare":
		runErr = runCompare(ctx, cfg, p, logger, os.Args[2:])
	case "serve":
		runErr = runServe(ctx, cfg, p, logger)
	case "purge":
		runErr = runPurge(ctx, cfg, logger)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if runErr != nil {
		logger.Error("%v", runErr)
		if errors.Is(runErr, models.ErrInvalidRange) ||
			errors.Is(runErr, models.ErrUnknownCategory) ||
			errors.Is(runErr, models.ErrUnknownSubset) ||
			errors.Is(runErr, models.ErrUnknownColumn) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func runFetch(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline, logger *utils.Logger, args []string) error {
	fs := flag.NewFlagSet("fetch", flag.ExitOnError)
	category := fs.String("category", "demand", "demand | generation | storage | price")
	subset := fs.String("subset", "all", "all | renewable | non_renewable")
	start := fs.String("start", "", "first day, yyyy-mm-dd")
	end := fs.String("end", "", "last day, yyyy-mm-dd")
	writeCSV := fs.Bool("csv", false, "export the dataset to OUTPUT_DIR")
	statsCol := fs.String("stats", "", "print max/min/mean of this column")
	preview := fs.Int("preview", 10, "rows to preview")
	_ = fs.Parse(args)

	sel, err := pipeline.ParseSelection(*category, *subset)
	if err != nil {
		return err
	}
	r, err := models.ParseDateRange(*start, *end)
	if err != nil {
		return err
	}
	spec, err := p.Spec(sel.Category)
	if err != nil {
		return err
	}

	// =============== Scraping ===================================
	ds, err := p.Fetch(ctx, sel, r)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", sel.Category, err)
	}
	if ds.Empty() {
		logger.Warn("No %s data between %s and %s", sel.Category, r.StartString(), r.EndString())
	}

	services.PrintPreview(os.Stdout, ds, fmt.Sprintf("%s %s → %s", spec.Label, r.StartString(), r.EndString()), *preview)

	if *statsCol != "" {
		stats, err := services.ComputeStats(ds, *statsCol)
		if err != nil {
			return err
		}
		services.PrintStats(os.Stdout, stats)
	}

	// ========= CSV export ===========================
	if *writeCSV && !ds.Empty() {
		csvWriter := storage.NewCSVWriter(cfg.OutputDir, logger)
		path, err := csvWriter.WriteFile(spec.ExportFilename(r), ds, cfg.Delimiter(spec.DelimiterRune()))
		if err != nil {
			return err
		}
		fmt.Println(" Done! Data →", path)
	}

	saveSnapshot(ctx, cfg, ds, logger)
	return nil
}

func runCompare(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline, logger *utils.Logger, args []string) error {
	fs := flag.NewFlagSet("compare", flag.ExitOnError)
	catA := fs.String("a", "demand", "first category")
	catB := fs.String("b", "price", "second category")
	subA := fs.String("a-subset", "all", "column subset of the first category")
	subB := fs.String("b-subset", "all", "column subset of the second category")
	start := fs.String("start", "", "first day, yyyy-mm-dd")
	end := fs.String("end", "", "last day, yyyy-mm-dd")
	writeCSV := fs.Bool("csv", false, "export the merged dataset to OUTPUT_DIR")
	preview := fs.Int("preview", 10, "rows to preview")
	_ = fs.Parse(args)

	a, err := pipeline.ParseSelection(*catA, *subA)
	if err != nil {
		return err
	}
	b, err := pipeline.ParseSelection(*catB, *subB)
	if err != nil {
		return err
	}
	r, err := models.ParseDateRange(*start, *end)
	if err != nil {
		return err
	}

	merged, err := p.Compare(ctx, a, b, r)
	if err != nil {
		return err
	}

	services.PrintPreview(os.Stdout, merged, fmt.Sprintf("%s + %s", a.Category, b.Category), *preview)

	if *writeCSV && !merged.Empty() {
		name := fmt.Sprintf("%s_%s-%s_%s.csv", a.Category, b.Category, r.StartString(), r.EndString())
		path, err := storage.NewCSVWriter(cfg.OutputDir, logger).WriteFile(name, merged, cfg.Delimiter(','))
		if err != nil {
			return err
		}
		fmt.Println(" Done! Data →", path)
	}

	saveSnapshot(ctx, cfg, merged, logger)
	return nil
}

func runServe(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline, logger *utils.Logger) error {
	var store storage.SnapshotStore
	if cfg.DatabaseDriver != "" {
		s, err := openStore(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer s.Close()
		store = s
	} else {
		logger.Warn("DATABASE_DRIVER not set, snapshots are disabled")
	}

	return server.New(cfg, p, store, logger).Run(ctx)
}

func runPurge(ctx context.Context, cfg *config.Config, logger *utils.Logger) error {
	if cfg.DatabaseDriver == "" {
		return fmt.Errorf("purge needs DATABASE_DRIVER and DATABASE_URL")
	}
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.PurgeOlderThan(ctx, cfg.SnapshotTTL)
	if err != nil {
		return err
	}
	fmt.Printf(" Purged %d snapshots older than %s\n", n, cfg.SnapshotTTL)
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, logger *utils.Logger) (*storage.SQLSnapshotStore, error) {
	store, err := storage.NewSQLSnapshotStore(cfg.DatabaseDriver, cfg.DatabaseURL, cfg.SnapshotTTL, logger)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to snapshot store: %w", err)
	}
	if err := store.CreateTable(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

// saveSnapshot keeps a CLI result around for later stats or export; failure is non-fatal
func saveSnapshot(ctx context.Context, cfg *config.Config, ds models.Dataset, logger *utils.Logger) {
	if cfg.DatabaseDriver == "" || ds.Empty() {
		return
	}
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Warn("Snapshot not saved: %v", err)
		return
	}
	defer store.Close()

	id, err := store.Save(ctx, ds)
	if err != nil {
		logger.Warn("Snapshot not saved: %v", err)
		return
	}
	fmt.Println(" Snapshot id:", id)
}
