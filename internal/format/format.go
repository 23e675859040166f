// Package format renders timetable data as plain text for the command line.
package format

import (
	"fmt"
	"strings"

	"timetable/internal/model"
)

// FormatDates formats the list of published dates.
func FormatDates(dates []model.DateEntry) string {
	if len(dates) == 0 {
		return "No dates published."
	}
	var b strings.Builder
	b.WriteString("Published dates:\n")
	for _, d := range dates {
		fmt.Fprintf(&b, "\n%s", d.DisplayDate)
		if d.IsRange() {
			b.WriteString("  (range)")
		}
		fmt.Fprintf(&b, "\n   %s\n", d.URLDate)
	}
	return b.String()
}

// FormatSchedule formats lessons grouped by group in first-seen order.
func FormatSchedule(label string, entries []model.LessonEntry) string {
	if len(entries) == 0 {
		return fmt.Sprintf("No lessons for %s.", label)
	}

	var order []string
	byGroup := make(map[string][]model.LessonEntry)
	for _, e := range entries {
		if _, ok := byGroup[e.Group]; !ok {
			order = append(order, e.Group)
		}
		byGroup[e.Group] = append(byGroup[e.Group], e)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", label)
	for _, g := range order {
		fmt.Fprintf(&b, "\n%s:\n", g)
		for _, e := range byGroup[g] {
			writeLesson(&b, e)
		}
	}
	return b.String()
}

// FormatSplit formats a range schedule one day after another.
func FormatSplit(days []model.DaySchedule) string {
	var b strings.Builder
	for i, d := range days {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s:\n", d.Day)
		if len(d.Schedule) == 0 {
			b.WriteString("  no lessons\n")
			continue
		}
		for _, e := range d.Schedule {
			writeLesson(&b, e)
		}
	}
	return b.String()
}

func writeLesson(b *strings.Builder, e model.LessonEntry) {
	pair := e.Pair
	if e.IsCommunicationHour {
		pair = "-"
	}
	fmt.Fprintf(b, "  %s  %s  %s\n", pair, e.Time, e.Subject)
	if e.Details != "" {
		fmt.Fprintf(b, "     %s\n", e.Details)
	}
}

// FormatBells formats the weekday and Saturday bell timetables.
func FormatBells(bells model.BellSchedule) string {
	var b strings.Builder
	b.WriteString("Monday to Friday:\n")
	writeBells(&b, bells.Weekday)
	b.WriteString("\nSaturday:\n")
	writeBells(&b, bells.Saturday)
	return b.String()
}

func writeBells(b *strings.Builder, items []model.BellScheduleItem) {
	if len(items) == 0 {
		b.WriteString("  none\n")
		return
	}
	for _, it := range items {
		switch it.Type {
		case model.BellSection:
			fmt.Fprintf(b, "  [%s]\n", it.Description)
		case model.BellBreak:
			fmt.Fprintf(b, "      %s\n", it.Time)
		default:
			fmt.Fprintf(b, "  %s  %s\n", it.Description, it.Time)
		}
	}
}
