package main

import (
	"fmt"
	"os"

	"github.com/alexanderramin/sitetrack/internal/cli"
	"github.com/alexanderramin/sitetrack/internal/config"
	"github.com/alexanderramin/sitetrack/internal/db"
	"github.com/alexanderramin/sitetrack/internal/logger"
	"github.com/alexanderramin/sitetrack/internal/repository"
	"github.com/alexanderramin/sitetrack/internal/service"
	"github.com/mattn/go-isatty"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log, err := logger.New(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer log.Sync()

	database, err := db.OpenDB(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	// Wire repositories
	mapRepo := repository.NewSQLiteSiteMapRepo(database)
	plotRepo := repository.NewSQLitePlotRepo(database)
	progressRepo := repository.NewSQLiteProgressRepo(database)
	historyRepo := repository.NewSQLitePlanHistoryRepo(database)
	typeRepo := repository.NewSQLiteConstructionTypeRepo(database)
	homebuilderRepo := repository.NewSQLiteHomebuilderRepo(database)
	unitTypeRepo := repository.NewSQLiteUnitTypeRepo(database)
	salesRepo := repository.NewSQLiteSalesUpdateRepo(database)

	uow := db.NewSQLiteUnitOfWork(database)
	observer := service.NewLogUseCaseObserver(log)
	window := cfg.Progress.DelayWindow()

	app := &cli.App{
		Progress: service.NewProgressService(progressRepo, historyRepo, uow, service.ProgressOptions{
			Retries:     cfg.Progress.PlanUpdateRetries,
			DelayWindow: window,
		}, observer),
		Plots:     service.NewPlotService(plotRepo, progressRepo, uow, observer),
		Dashboard: service.NewDashboardService(mapRepo, plotRepo, progressRepo, window, observer),
		Reference: service.NewReferenceService(mapRepo, typeRepo, homebuilderRepo, unitTypeRepo, salesRepo, uow),
		Import:    service.NewImportService(uow, observer),

		Config:  cfg,
		Log:     log,
		DB:      database,
		Version: version,
	}

	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	return cli.NewRootCmd(app).Execute()
}
