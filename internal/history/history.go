package history

import (
	"maps"
	"slices"
)

// WeekIndex identifies a calendar week as days-since-epoch / 7.
type WeekIndex int

// Period groups categories sharing a cadence, e.g. "weekday" or "weekend".
type Period string

// Category names a class of interchangeable items filling one slot.
type Category string

// Categories maps a category to the items picked for it, in append order.
type Categories map[Category][]string

// Periods maps a period to its categories.
type Periods map[Period]Categories

// Record is the full selection history: week -> period -> category -> items.
// A nil Record is valid for reads; use New before writing.
type Record map[WeekIndex]Periods

// New returns an empty Record.
func New() Record {
	return Record{}
}

// ensure returns the item slice holder for the path, creating missing levels.
func (r Record) ensure(week WeekIndex, period Period) Categories {
	periods, ok := r[week]
	if !ok {
		periods = Periods{}
		r[week] = periods
	}
	cats, ok := periods[period]
	if !ok {
		cats = Categories{}
		periods[period] = cats
	}
	return cats
}

// Record appends item to record[week][period][category].
func (r Record) Record(week WeekIndex, period Period, category Category, item string) {
	cats := r.ensure(week, period)
	cats[category] = append(cats[category], item)
}

// RecentItems returns every item recorded for category in the weeks
// currentWeek-lookbackWeeks through currentWeek, across all periods. The
// week being planned always counts, together with the lookbackWeeks weeks
// before it. A lookback of zero or less yields the empty set.
func (r Record) RecentItems(category Category, currentWeek WeekIndex, lookbackWeeks int) map[string]struct{} {
	recent := make(map[string]struct{})
	if lookbackWeeks <= 0 {
		return recent
	}
	for offset := 0; offset <= lookbackWeeks; offset++ {
		periods, ok := r[currentWeek-WeekIndex(offset)]
		if !ok {
			continue
		}
		for _, cats := range periods {
			for _, item := range cats[category] {
				recent[item] = struct{}{}
			}
		}
	}
	return recent
}

// Items returns the items recorded for one path, or nil.
func (r Record) Items(week WeekIndex, period Period, category Category) []string {
	return r[week][period][category]
}

// Weeks returns the recorded weeks in ascending order.
func (r Record) Weeks() []WeekIndex {
	return slices.Sorted(maps.Keys(r))
}

// Clear removes every week.
func (r Record) Clear() {
	clear(r)
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for week, periods := range r {
		for period, cats := range periods {
			for category, items := range cats {
				if len(items) == 0 {
					continue
				}
				dst := out.ensure(week, period)
				dst[category] = slices.Clone(items)
			}
		}
	}
	return out
}

// Equal reports whether two records hold the same paths and sequences.
func Equal(a, b Record) bool {
	// Clone drops empty levels so only populated paths are compared.
	return maps.EqualFunc(a.Clone(), b.Clone(), func(x, y Periods) bool {
		return maps.EqualFunc(x, y, func(cx, cy Categories) bool {
			return maps.EqualFunc(cx, cy, func(ix, iy []string) bool {
				return slices.Equal(ix, iy)
			})
		})
	})
}
