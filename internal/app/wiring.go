package app

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"meal-rotation/internal/candidates"
	"meal-rotation/internal/config"
	"meal-rotation/internal/database"
	"meal-rotation/internal/ghost"
	"meal-rotation/internal/history"
	"meal-rotation/internal/metrics"
	"meal-rotation/internal/planner"
	"meal-rotation/internal/rotation"
)

// Build assembles an App from configuration. The returned close function
// releases the database.
func Build(cfg *config.Config) (*App, func() error, error) {
	db, err := openDatabase(cfg)
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() error {
		if db == nil {
			return nil
		}
		return db.Close()
	}
	fail := func(err error) (*App, func() error, error) {
		closeDB()
		return nil, nil, err
	}

	var store history.Store
	switch cfg.HistoryBackend {
	case config.BackendSQLite:
		store = history.NewSQLiteStore(db.SQL)
	default:
		fileStore, err := history.NewFileStore(cfg.HistoryPath)
		if err != nil {
			return fail(fmt.Errorf("failed to initialize history store: %w", err))
		}
		store = fileStore
	}

	source, err := candidates.NewDirSource(cfg.CandidatesDir)
	if err != nil {
		return fail(err)
	}

	grouping, err := planner.LoadGrouping(cfg.PeriodsFile)
	if err != nil {
		return fail(err)
	}

	selector := rotation.NewSelector(rotation.NewSeededRand(cfg.Seed, cfg.PrintSeed))
	mealPlanner := planner.NewPlanner(source, selector, cfg.LookbackWeeks)

	var runs RunRecorder
	if db != nil {
		runs = metrics.NewStore(db.SQL)
	}

	var ghostClient GhostClient
	if cfg.GhostEnabled() {
		ghostClient = ghost.NewClient(cfg)
	}

	a := NewApp(
		store,
		source,
		mealPlanner,
		grouping,
		candidates.NewHTTPFetcher(),
		runs,
		ghostClient,
		cfg.PeriodsFile,
		cfg.DataDir,
	)
	return a, closeDB, nil
}

// openDatabase opens the database that holds the run log, and the history
// too when the sqlite backend is selected. A damaged file does not stop a
// run: the sqlite backend moves it aside and starts from an empty history,
// the file backend goes on without a run log and gets a nil DB.
func openDatabase(cfg *config.Config) (*database.DB, error) {
	db, err := database.NewDB(cfg.DatabasePath)
	if err == nil {
		return db, nil
	}
	if cfg.HistoryBackend != config.BackendSQLite {
		log.Printf("Warning: plan runs will not be logged: %v", err)
		return nil, nil
	}
	if !errors.Is(err, database.ErrCorrupt) {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	moved, moveErr := database.MoveAside(cfg.DatabasePath, time.Now())
	if moveErr != nil {
		return nil, fmt.Errorf("failed to recover database: %w", moveErr)
	}
	log.Printf("Warning: %v; moved it to %s and starting with an empty history", err, moved)

	db, err = database.NewDB(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return db, nil
}

func (a *App) writeGroupingIfMissing() error {
	if _, err := os.Stat(a.groupPath); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to stat periods file: %w", err)
	}
	return planner.SaveGrouping(a.groupPath, a.grouping)
}
