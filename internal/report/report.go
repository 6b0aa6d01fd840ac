// Package report renders week plans and history for people to read.
package report

import (
	"fmt"
	"html"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"meal-rotation/internal/history"
	"meal-rotation/internal/metrics"
	"meal-rotation/internal/planner"
)

// slotOrder returns the plan's slots in grouping order.
func slotOrder(plan *planner.WeekPlan) []planner.PeriodGroup {
	if len(plan.Grouping) > 0 {
		return plan.Grouping
	}
	var groups []planner.PeriodGroup
	for _, period := range slices.Sorted(maps.Keys(plan.Picks)) {
		groups = append(groups, planner.PeriodGroup{
			Period:     period,
			Categories: slices.Sorted(maps.Keys(plan.Picks[period])),
		})
	}
	return groups
}

// FormatText renders a plan for the terminal.
func FormatText(plan *planner.WeekPlan) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "=== WEEK %d (from %s) ===\n", plan.Week, planner.WeekStart(plan.Week).Format("2006-01-02"))

	for _, group := range slotOrder(plan) {
		fmt.Fprintf(&sb, "\n[%s]\n", group.Period)
		for _, category := range group.Categories {
			item, ok := plan.Pick(group.Period, category)
			if !ok {
				item = "(no pick)"
			}
			fmt.Fprintf(&sb, "%-16s: %s\n", category, item)
		}
	}

	if len(plan.Skipped) > 0 {
		sb.WriteString("\n=== SKIPPED ===\n")
		for _, s := range plan.Skipped {
			fmt.Fprintf(&sb, "- %s/%s: %s\n", s.Period, s.Category, describe(s.Reason))
		}
	}
	return sb.String()
}

// FormatMarkdown renders a plan as Telegram Markdown.
func FormatMarkdown(plan *planner.WeekPlan) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📅 *Week %d* (from %s)\n", plan.Week, planner.WeekStart(plan.Week).Format("2006-01-02"))

	for _, group := range slotOrder(plan) {
		fmt.Fprintf(&sb, "\n*%s*\n", escapeMarkdown(string(group.Period)))
		for _, category := range group.Categories {
			if item, ok := plan.Pick(group.Period, category); ok {
				fmt.Fprintf(&sb, "• %s: %s\n", escapeMarkdown(string(category)), escapeMarkdown(item))
			} else {
				fmt.Fprintf(&sb, "• %s: _no pick_\n", escapeMarkdown(string(category)))
			}
		}
	}

	if len(plan.Skipped) > 0 {
		sb.WriteString("\n⚠️ *Skipped*\n")
		for _, s := range plan.Skipped {
			fmt.Fprintf(&sb, "• %s: %s\n", escapeMarkdown(string(s.Category)), describe(s.Reason))
		}
	}
	return sb.String()
}

// FormatHTML renders a plan as an HTML fragment suitable for a blog post.
func FormatHTML(plan *planner.WeekPlan) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<p><i>Week of %s</i></p>", planner.WeekStart(plan.Week).Format("January 2, 2006"))

	for _, group := range slotOrder(plan) {
		fmt.Fprintf(&sb, "<h2>%s</h2><ul>", html.EscapeString(string(group.Period)))
		for _, category := range group.Categories {
			item, ok := plan.Pick(group.Period, category)
			if !ok {
				item = "no pick"
			}
			fmt.Fprintf(&sb, "<li><strong>%s:</strong> %s</li>", html.EscapeString(string(category)), html.EscapeString(item))
		}
		sb.WriteString("</ul>")
	}
	return sb.String()
}

// FormatHistory renders the last weeks of the record up to and including
// current, newest first.
func FormatHistory(rec history.Record, current history.WeekIndex, weeks int) string {
	var sb strings.Builder
	shown := 0
	all := rec.Weeks()
	for i := len(all) - 1; i >= 0; i-- {
		week := all[i]
		if week > current {
			continue
		}
		if week <= current-history.WeekIndex(weeks) {
			break
		}
		shown++
		fmt.Fprintf(&sb, "Week %d (from %s)\n", week, planner.WeekStart(week).Format("2006-01-02"))
		periods := rec[week]
		for _, period := range slices.Sorted(maps.Keys(periods)) {
			cats := periods[period]
			for _, category := range slices.Sorted(maps.Keys(cats)) {
				fmt.Fprintf(&sb, "  %s/%s: %s\n", period, category, strings.Join(cats[category], ", "))
			}
		}
	}
	if shown == 0 {
		return "No history yet.\n"
	}
	return sb.String()
}

// FormatStatus renders recent plan runs and process health as Telegram
// Markdown.
func FormatStatus(current history.WeekIndex, weeks int, runs []metrics.PlanRun, health metrics.SysHealth, now time.Time) string {
	var sb strings.Builder
	sb.WriteString("📊 *Rotation Status*\n\n")
	fmt.Fprintf(&sb, "Current week: %d\nRecorded weeks: %d\n", current, weeks)

	sb.WriteString("\n🗓 *Recent Runs*\n")
	if len(runs) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, r := range runs {
		mode := ""
		if r.DryRun {
			mode = " (dry run)"
		}
		fmt.Fprintf(&sb, "• week %d: %d picks, %d skipped%s, %s\n",
			r.Week, r.Picks, r.Skipped, mode, humanize.RelTime(r.Timestamp, now, "ago", "from now"))
	}

	sb.WriteString("\n🧠 *System Health*\n")
	fmt.Fprintf(&sb, "• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB)
	fmt.Fprintf(&sb, "• Goroutines: %d\n", health.Goroutines)
	fmt.Fprintf(&sb, "• Disk Data: %s\n", health.DataDiskSize)
	return sb.String()
}

func describe(reason planner.SkipReason) string {
	switch reason {
	case planner.SkipNoCandidates:
		return "no candidates"
	case planner.SkipExhausted:
		return "every candidate used recently"
	default:
		return string(reason)
	}
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

// escapeMarkdown escapes legacy Telegram Markdown control characters.
func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
