package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"meal-rotation/internal/candidates"
	"meal-rotation/internal/ghost"
	"meal-rotation/internal/history"
	"meal-rotation/internal/metrics"
	"meal-rotation/internal/planner"
	"meal-rotation/internal/report"
)

// RunRecorder persists a log of planning passes.
type RunRecorder interface {
	Record(ctx context.Context, run metrics.PlanRun) error
	RecentRuns(ctx context.Context, limit int) ([]metrics.PlanRun, error)
	CleanupBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// GhostClient imports candidates from and publishes plans to a Ghost site.
type GhostClient interface {
	FetchTitles(ctx context.Context, tag string) ([]string, error)
	CreatePost(ctx context.Context, title, html string, publish bool) (*ghost.Post, error)
}

// ErrGhostDisabled is returned by Ghost operations when no site is configured.
var ErrGhostDisabled = errors.New("ghost is not configured (set GHOST_URL)")

// ErrNoRunLog is returned by CleanupRuns when the run log database could not
// be opened.
var ErrNoRunLog = errors.New("run log is not available")

// Status summarizes recent activity and process health.
type Status struct {
	Week   history.WeekIndex
	Weeks  int
	Runs   []metrics.PlanRun
	Health metrics.SysHealth
}

// App holds the application's dependencies.
type App struct {
	store     history.Store
	source    *candidates.DirSource
	planner   *planner.Planner
	grouping  planner.Grouping
	fetcher   candidates.Fetcher
	runs      RunRecorder
	ghost     GhostClient
	groupPath string
	dataDir   string
	now       func() time.Time

	// mu serializes load -> plan -> save cycles from this process.
	mu sync.Mutex
}

// NewApp creates and initializes a new App instance.
func NewApp(
	store history.Store,
	source *candidates.DirSource,
	mealPlanner *planner.Planner,
	grouping planner.Grouping,
	fetcher candidates.Fetcher,
	runs RunRecorder,
	ghostClient GhostClient,
	groupPath string,
	dataDir string,
) *App {
	return &App{
		store:     store,
		source:    source,
		planner:   mealPlanner,
		grouping:  grouping,
		fetcher:   fetcher,
		runs:      runs,
		ghost:     ghostClient,
		groupPath: groupPath,
		dataDir:   dataDir,
		now:       time.Now,
	}
}

// SetClock overrides the time source used for the current week.
func (a *App) SetClock(now func() time.Time) {
	a.now = now
}

// CurrentWeek returns the week index for the app clock.
func (a *App) CurrentWeek() history.WeekIndex {
	return planner.CurrentWeek(a.now())
}

// Grouping returns the Period -> Category layout in use.
func (a *App) Grouping() planner.Grouping {
	return a.grouping
}

// PlanWeek loads the history, picks every slot of week and saves the result.
// With dryRun the picks are returned but the history is left untouched.
func (a *App) PlanWeek(ctx context.Context, week history.WeekIndex, dryRun bool) (*planner.WeekPlan, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.plan(ctx, week, dryRun, false)
}

// ReplanWeek discards the picks already recorded for week and plans it again.
func (a *App) ReplanWeek(ctx context.Context, week history.WeekIndex) (*planner.WeekPlan, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.plan(ctx, week, false, true)
}

// HasWeek reports whether any pick is recorded for week.
func (a *App) HasWeek(ctx context.Context, week history.WeekIndex) (bool, error) {
	rec, err := a.History(ctx)
	if err != nil {
		return false, err
	}
	return len(rec[week]) > 0, nil
}

func (a *App) plan(ctx context.Context, week history.WeekIndex, dryRun, replace bool) (*planner.WeekPlan, error) {
	start := time.Now()
	rec, err := a.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	if replace {
		delete(rec, week)
	}

	plan, err := a.planner.GeneratePlan(ctx, rec, week, a.grouping)
	if err != nil {
		return nil, fmt.Errorf("failed to generate plan: %w", err)
	}
	for _, s := range plan.Skipped {
		log.Printf("Skipped '%s' for week %d: %s", s.Category, week, s.Reason)
	}

	if !dryRun {
		if err := a.store.Save(ctx, plan.History); err != nil {
			return nil, fmt.Errorf("failed to save history: %w", err)
		}
		log.Printf("Recorded %d picks for week %d.", countPicks(plan), week)
	}
	a.recordRun(ctx, plan, dryRun, time.Since(start))
	return plan, nil
}

// recordRun logs the pass. Failures never fail the plan.
func (a *App) recordRun(ctx context.Context, plan *planner.WeekPlan, dryRun bool, latency time.Duration) {
	if a.runs == nil {
		return
	}
	err := a.runs.Record(ctx, metrics.PlanRun{
		Week:      plan.Week,
		Picks:     countPicks(plan),
		Skipped:   len(plan.Skipped),
		DryRun:    dryRun,
		Latency:   latency,
		Timestamp: a.now().UTC(),
	})
	if err != nil {
		log.Printf("Warning: failed to record plan run for week %d: %v", plan.Week, err)
	}
}

// Status returns the most recent runs, the number of recorded weeks and
// process health.
func (a *App) Status(ctx context.Context, limit int) (*Status, error) {
	rec, err := a.History(ctx)
	if err != nil {
		return nil, err
	}
	status := &Status{
		Week:   a.CurrentWeek(),
		Weeks:  len(rec),
		Health: metrics.GetSysHealth(a.dataDir),
	}
	if a.runs != nil {
		runs, err := a.runs.RecentRuns(ctx, limit)
		if err != nil {
			return nil, fmt.Errorf("failed to load plan runs: %w", err)
		}
		status.Runs = runs
	}
	return status, nil
}

// CleanupRuns removes logged plan runs older than days, measured from the
// app clock, and returns how many were removed.
func (a *App) CleanupRuns(ctx context.Context, days int) (int64, error) {
	if days < 1 {
		return 0, fmt.Errorf("days must be at least 1, got %d", days)
	}
	if a.runs == nil {
		return 0, ErrNoRunLog
	}
	removed, err := a.runs.CleanupBefore(ctx, a.now().AddDate(0, 0, -days))
	if err != nil {
		return 0, fmt.Errorf("failed to clean up plan runs: %w", err)
	}
	return removed, nil
}

// History returns the current selection record.
func (a *App) History(ctx context.Context) (history.Record, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	rec, err := a.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return rec, nil
}

// ClearHistory wipes every recorded selection.
func (a *App) ClearHistory(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	rec, err := a.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	rec.Clear()
	if err := a.store.Save(ctx, rec); err != nil {
		return fmt.Errorf("failed to save cleared history: %w", err)
	}
	return nil
}

// SeedCandidates writes sample candidate files and the periods file when
// they do not exist yet.
func (a *App) SeedCandidates() ([]history.Category, error) {
	if err := a.writeGroupingIfMissing(); err != nil {
		return nil, err
	}
	written, err := a.source.Seed(a.grouping.Categories())
	if err != nil {
		return written, fmt.Errorf("failed to seed candidates: %w", err)
	}
	return written, nil
}

// ImportCandidates appends the list items of an HTML page to a category.
func (a *App) ImportCandidates(ctx context.Context, category history.Category, location string) (int, error) {
	added, err := a.source.Import(ctx, a.fetcher, category, location)
	if err != nil {
		return 0, fmt.Errorf("failed to import candidates for '%s': %w", category, err)
	}
	return added, nil
}

// ImportFromGhost appends the titles of posts tagged tag to a category.
func (a *App) ImportFromGhost(ctx context.Context, category history.Category, tag string) (int, error) {
	if a.ghost == nil {
		return 0, ErrGhostDisabled
	}
	titles, err := a.ghost.FetchTitles(ctx, tag)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch ghost posts tagged '%s': %w", tag, err)
	}
	if len(titles) == 0 {
		return 0, fmt.Errorf("no ghost posts tagged '%s'", tag)
	}
	added, err := a.source.Append(category, titles)
	if err != nil {
		return 0, fmt.Errorf("failed to import candidates for '%s': %w", category, err)
	}
	return added, nil
}

// PublishPlan posts plan to the Ghost site as a draft.
func (a *App) PublishPlan(ctx context.Context, plan *planner.WeekPlan) (*ghost.Post, error) {
	if a.ghost == nil {
		return nil, ErrGhostDisabled
	}
	title := fmt.Sprintf("Meals for the week of %s", planner.WeekStart(plan.Week).Format("January 2, 2006"))
	post, err := a.ghost.CreatePost(ctx, title, report.FormatHTML(plan), false)
	if err != nil {
		return nil, fmt.Errorf("failed to publish plan for week %d: %w", plan.Week, err)
	}
	log.Printf("Published week %d as ghost post %s.", plan.Week, post.ID)
	return post, nil
}

func countPicks(plan *planner.WeekPlan) int {
	n := 0
	for _, cats := range plan.Picks {
		n += len(cats)
	}
	return n
}
