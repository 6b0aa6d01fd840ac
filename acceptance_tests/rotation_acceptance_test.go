package acceptance_tests

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"meal-rotation/internal/app"
	"meal-rotation/internal/config"
	"meal-rotation/internal/history"
)

func setupRotation(t *testing.T, backend string, lookback int) (*config.Config, *app.App) {
	t.Helper()
	cfg := rotationConfig(t, backend, lookback)
	return cfg, buildRotation(t, cfg)
}

// rotationConfig writes a periods file and candidate lists into a fresh
// data directory.
func rotationConfig(t *testing.T, backend string, lookback int) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		DataDir:        dir,
		HistoryBackend: backend,
		HistoryPath:    filepath.Join(dir, "history.json"),
		DatabasePath:   filepath.Join(dir, "history.db"),
		CandidatesDir:  filepath.Join(dir, "candidates"),
		PeriodsFile:    filepath.Join(dir, "periods.yaml"),
		LookbackWeeks:  lookback,
		Seed:           7,
	}

	periods := `periods:
  - period: weekday
    categories: [dinner]
  - period: weekend
    categories: [dinner, dessert]
`
	if err := os.WriteFile(cfg.PeriodsFile, []byte(periods), 0644); err != nil {
		t.Fatalf("Failed to write periods: %v", err)
	}
	if err := os.MkdirAll(cfg.CandidatesDir, 0755); err != nil {
		t.Fatalf("Failed to create candidates dir: %v", err)
	}
	var dinners []string
	for i := 1; i <= 8; i++ {
		dinners = append(dinners, fmt.Sprintf("Dinner %d", i))
	}
	files := map[string]string{
		"dinner":  strings.Join(dinners, "\n"),
		"dessert": "Flan\nTiramisu\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(cfg.CandidatesDir, name+".txt"), []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}

	return cfg
}

func buildRotation(t *testing.T, cfg *config.Config) *app.App {
	t.Helper()
	a, closeFn, err := app.Build(cfg)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(func() { closeFn() })
	a.SetClock(func() time.Time { return time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC) })
	return a
}

// TestRotationAcrossWeeks plans a season week by week and checks that no
// category repeats an item inside the lookback window.
func TestRotationAcrossWeeks(t *testing.T) {
	for _, backend := range []string{config.BackendFile, config.BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()
			// Lookback 1 covers the previous week and the planned one.
			_, a := setupRotation(t, backend, 1)
			start := a.CurrentWeek()

			for i := range 12 {
				week := start + history.WeekIndex(i)
				plan, err := a.PlanWeek(ctx, week, false)
				if err != nil {
					t.Fatalf("PlanWeek(%d) failed: %v", week, err)
				}
				// Shared category "dinner" in both periods draws from the same
				// list, so the weekend pick may not reuse the weekday one.
				weekday, ok1 := plan.Pick("weekday", "dinner")
				weekend, ok2 := plan.Pick("weekend", "dinner")
				if !ok1 || !ok2 {
					t.Fatalf("Expected both dinners for week %d, got %v", week, plan.Picks)
				}
				if weekday == weekend {
					t.Errorf("Week %d repeated '%s' across periods", week, weekday)
				}
				if _, ok := plan.Pick("weekend", "dessert"); !ok {
					t.Errorf("Expected a dessert for week %d, skipped %v", week, plan.Skipped)
				}
			}

			rec, err := a.History(ctx)
			if err != nil {
				t.Fatalf("History failed: %v", err)
			}
			if len(rec.Weeks()) != 12 {
				t.Fatalf("Expected 12 recorded weeks, got %d", len(rec.Weeks()))
			}
			for _, week := range rec.Weeks() {
				previous := map[string]bool{}
				for _, period := range []history.Period{"weekday", "weekend"} {
					for _, item := range rec.Items(week-1, period, "dinner") {
						previous[item] = true
					}
				}
				for _, period := range []history.Period{"weekday", "weekend"} {
					for _, item := range rec.Items(week, period, "dinner") {
						if previous[item] {
							t.Errorf("Week %d reused '%s' from the previous week", week, item)
						}
					}
				}
				desserts := rec.Items(week, "weekend", "dessert")
				prev := rec.Items(week-1, "weekend", "dessert")
				if len(prev) > 0 && len(desserts) > 0 && desserts[0] == prev[0] {
					t.Errorf("Week %d repeated dessert '%s'", week, desserts[0])
				}
			}
		})
	}
}

// TestSeededRunsAreReproducible runs the same season twice from a clean
// history and expects identical picks.
func TestSeededRunsAreReproducible(t *testing.T) {
	ctx := context.Background()
	run := func() []string {
		_, a := setupRotation(t, config.BackendFile, 1)
		var picks []string
		for i := range 6 {
			plan, err := a.PlanWeek(ctx, a.CurrentWeek()+history.WeekIndex(i), false)
			if err != nil {
				t.Fatalf("PlanWeek failed: %v", err)
			}
			pick, _ := plan.Pick("weekday", "dinner")
			picks = append(picks, pick)
		}
		return picks
	}

	first, second := run(), run()
	if strings.Join(first, ",") != strings.Join(second, ",") {
		t.Errorf("Expected identical seeded runs, got %v and %v", first, second)
	}
}

// TestCorruptDatabaseDoesNotStopPlanning damages the database file and
// expects planning to go on for both history backends.
func TestCorruptDatabaseDoesNotStopPlanning(t *testing.T) {
	ctx := context.Background()
	garbage := []byte("this is not a database, just some garbage bytes")

	t.Run(config.BackendSQLite, func(t *testing.T) {
		cfg := rotationConfig(t, config.BackendSQLite, 1)
		if err := os.WriteFile(cfg.DatabasePath, garbage, 0644); err != nil {
			t.Fatalf("Failed to write database: %v", err)
		}
		a := buildRotation(t, cfg)

		rec, err := a.History(ctx)
		if err != nil {
			t.Fatalf("History failed: %v", err)
		}
		if len(rec) != 0 {
			t.Errorf("Expected an empty history, got %v", rec)
		}
		if _, err := a.PlanWeek(ctx, a.CurrentWeek(), false); err != nil {
			t.Fatalf("PlanWeek failed: %v", err)
		}

		moved, err := filepath.Glob(cfg.DatabasePath + ".corrupt-*")
		if err != nil || len(moved) != 1 {
			t.Fatalf("Expected the damaged file to be moved aside, got %v (%v)", moved, err)
		}
		if data, _ := os.ReadFile(moved[0]); string(data) != string(garbage) {
			t.Errorf("Expected the moved file to keep its contents")
		}

		again := buildRotation(t, cfg)
		rec, err = again.History(ctx)
		if err != nil {
			t.Fatalf("History failed: %v", err)
		}
		if len(rec.Weeks()) != 1 {
			t.Errorf("Expected the new database to hold 1 week, got %v", rec.Weeks())
		}
	})

	t.Run(config.BackendFile, func(t *testing.T) {
		cfg := rotationConfig(t, config.BackendFile, 1)
		first := buildRotation(t, cfg)
		week := first.CurrentWeek()
		if _, err := first.PlanWeek(ctx, week, false); err != nil {
			t.Fatalf("PlanWeek failed: %v", err)
		}

		if err := os.WriteFile(cfg.DatabasePath, garbage, 0644); err != nil {
			t.Fatalf("Failed to write database: %v", err)
		}
		a := buildRotation(t, cfg)
		plan, err := a.PlanWeek(ctx, week+1, false)
		if err != nil {
			t.Fatalf("PlanWeek failed: %v", err)
		}

		// The healthy JSON history is still used for rotation.
		rec, err := a.History(ctx)
		if err != nil {
			t.Fatalf("History failed: %v", err)
		}
		if len(rec.Weeks()) != 2 {
			t.Fatalf("Expected 2 recorded weeks, got %v", rec.Weeks())
		}
		for _, item := range rec.Items(week, "weekday", "dinner") {
			if got, _ := plan.Pick("weekday", "dinner"); got == item {
				t.Errorf("Week %d repeated '%s' from the week before", week+1, item)
			}
		}

		status, err := a.Status(ctx, 10)
		if err != nil {
			t.Fatalf("Status failed: %v", err)
		}
		if len(status.Runs) != 0 {
			t.Errorf("Expected no run log, got %v", status.Runs)
		}
		if data, _ := os.ReadFile(cfg.DatabasePath); string(data) != string(garbage) {
			t.Errorf("Expected the file backend to leave the database untouched")
		}
	})
}
