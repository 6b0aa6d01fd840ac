package planner

import "meal-rotation/internal/history"

// SkipReason explains why a category got no pick this run.
type SkipReason string

const (
	SkipNoCandidates SkipReason = "no-candidates"
	SkipExhausted    SkipReason = "exhausted"
)

// Skipped records a category that was left empty for the week.
type Skipped struct {
	Period   history.Period   `json:"period"`
	Category history.Category `json:"category"`
	Reason   SkipReason       `json:"reason"`
}

// WeekPlan is the outcome of one planning run.
type WeekPlan struct {
	Week     history.WeekIndex                              `json:"week"`
	Picks    map[history.Period]map[history.Category]string `json:"picks"`
	Skipped  []Skipped                                      `json:"skipped,omitempty"`
	Grouping Grouping                                       `json:"-"`

	// History is the record the picks were appended to.
	History history.Record `json:"-"`
}

// Pick returns the chosen item for a slot.
func (p *WeekPlan) Pick(period history.Period, category history.Category) (string, bool) {
	item, ok := p.Picks[period][category]
	return item, ok
}

func (p *WeekPlan) setPick(period history.Period, category history.Category, item string) {
	cats, ok := p.Picks[period]
	if !ok {
		cats = make(map[history.Category]string)
		p.Picks[period] = cats
	}
	cats[category] = item
}
