package planner

import (
	"context"

	"meal-rotation/internal/candidates"
	"meal-rotation/internal/history"
	"meal-rotation/internal/rotation"
)

// Planner fills every category of a week with an item not used recently.
type Planner struct {
	source        candidates.Source
	selector      *rotation.Selector
	lookbackWeeks int
}

// NewPlanner creates a new Planner instance.
func NewPlanner(source candidates.Source, selector *rotation.Selector, lookbackWeeks int) *Planner {
	return &Planner{
		source:        source,
		selector:      selector,
		lookbackWeeks: lookbackWeeks,
	}
}

// LookbackWeeks returns the rotation window.
func (p *Planner) LookbackWeeks() int {
	return p.lookbackWeeks
}

// GeneratePlan picks one item per category of grouping for week and appends
// each pick to rec. Categories without an eligible item are skipped.
func (p *Planner) GeneratePlan(ctx context.Context, rec history.Record, week history.WeekIndex, grouping Grouping) (*WeekPlan, error) {
	if rec == nil {
		rec = history.New()
	}
	plan := &WeekPlan{
		Week:     week,
		Picks:    make(map[history.Period]map[history.Category]string),
		Grouping: grouping,
		History:  rec,
	}

	for _, group := range grouping {
		for _, category := range group.Categories {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			all := p.source.Candidates(category)
			if len(all) == 0 {
				plan.Skipped = append(plan.Skipped, Skipped{Period: group.Period, Category: category, Reason: SkipNoCandidates})
				continue
			}

			recent := rec.RecentItems(category, week, p.lookbackWeeks)
			pick, ok := p.selector.Pick(all, recent)
			if !ok {
				plan.Skipped = append(plan.Skipped, Skipped{Period: group.Period, Category: category, Reason: SkipExhausted})
				continue
			}

			rec.Record(week, group.Period, category, pick)
			plan.setPick(group.Period, category, pick)
		}
	}
	return plan, nil
}
