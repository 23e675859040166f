package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"timetable/internal/grouporder"
	"timetable/internal/model"
)

const detailSeparator = " • "

var (
	pairPattern  = regexp.MustCompile(`(\d+) пара`)
	timePattern  = regexp.MustCompile(`(\d+\.\d+)\s*–\s*(\d+\.\d+)`)
	spacePattern = regexp.MustCompile(`\s+`)
)

// ParseSchedule extracts the lessons of one date page.
//
// Group labels of every table header are appended to order first, in table then
// column order. Entries follow table, row and column order. A label containing a
// comma marks a range date whose tables are consecutive days.
func ParseSchedule(doc *goquery.Document, label string, order *grouporder.Order) ([]model.LessonEntry, error) {
	tables := doc.Find(".table-wrapper table")
	if tables.Length() == 0 {
		return nil, fmt.Errorf("%w: no timetable tables for %q", ErrMarkup, label)
	}

	tables.Each(func(_ int, table *goquery.Selection) {
		for _, g := range headerGroups(table) {
			order.AddIfAbsent(g)
		}
	})

	isRange := model.IsRangeLabel(label)
	entries := make([]model.LessonEntry, 0)
	dayIndex := 0
	tables.Each(func(tableIndex int, table *goquery.Selection) {
		t := tableParser{
			date:       label,
			isRange:    isRange,
			tableIndex: tableIndex,
			dayIndex:   dayIndex,
			groups:     headerGroups(table),
		}
		entries = append(entries, t.parse(table)...)
		if isRange {
			dayIndex++
		}
	})
	return entries, nil
}

// headerGroups returns the group label of every column after the first.
// Columns without a label keep their position as an empty string.
func headerGroups(table *goquery.Selection) []string {
	header := table.Find("tr").First()
	var groups []string
	header.Find("td").Each(func(i int, cell *goquery.Selection) {
		if i == 0 {
			return
		}
		groups = append(groups, strings.TrimSpace(cell.Find("h1").Text()))
	})
	return groups
}

type tableParser struct {
	date       string
	isRange    bool
	tableIndex int
	dayIndex   int
	groups     []string
}

func (t tableParser) parse(table *goquery.Selection) []model.LessonEntry {
	var entries []model.LessonEntry
	table.Find("tr").Each(func(rowIndex int, row *goquery.Selection) {
		if rowIndex == 0 {
			entries = append(entries, t.headerRow(row)...)
			return
		}
		entries = append(entries, t.lessonRow(row)...)
	})
	return entries
}

// headerRow yields synthetic communication entries for header cells that carry a marker.
func (t tableParser) headerRow(row *goquery.Selection) []model.LessonEntry {
	var entries []model.LessonEntry
	t.eachGroupCell(row, func(group string, cell *goquery.Selection) {
		if !HasCommunicationMarker(strings.TrimSpace(cell.Text())) {
			return
		}
		entries = append(entries, t.entry(group, model.DefaultTime, "", model.CommunicationHour, []string{}, true))
	})
	return entries
}

func (t tableParser) lessonRow(row *goquery.Selection) []model.LessonEntry {
	lead := row.Find("td").First().Find("p")
	pair := RowPair(strings.TrimSpace(lead.First().Text()))
	slot := RowTime(strings.TrimSpace(lead.Last().Text()))

	var entries []model.LessonEntry
	t.eachGroupCell(row, func(group string, cell *goquery.Selection) {
		cellText := strings.TrimSpace(cell.Text())
		if cellText == "" {
			return
		}

		paragraphs := cell.Find("p")
		subject := collapseSpaces(paragraphs.First().Text())
		var details []string
		paragraphs.Each(func(i int, p *goquery.Selection) {
			if i == 0 {
				return
			}
			if d := strings.TrimSpace(p.Text()); d != "" {
				details = append(details, d)
			}
		})

		isComm, kept := ClassifyCommunication(cellText, subject, details)
		if subject == "" && !isComm {
			return
		}
		if isComm {
			entries = append(entries, t.entry(group, slot, "", model.CommunicationHour, kept, true))
			return
		}
		entries = append(entries, t.entry(group, slot, pair, subject, kept, false))
	})
	return entries
}

// eachGroupCell calls fn for every cell after the first whose column has a group label.
func (t tableParser) eachGroupCell(row *goquery.Selection, fn func(group string, cell *goquery.Selection)) {
	row.Find("td").Each(func(i int, cell *goquery.Selection) {
		if i == 0 || i > len(t.groups) {
			return
		}
		group := t.groups[i-1]
		if group == "" {
			return
		}
		fn(group, cell)
	})
}

func (t tableParser) entry(group, slot, pair, subject string, details []string, isComm bool) model.LessonEntry {
	e := model.LessonEntry{
		Group:               group,
		Time:                slot,
		Pair:                pair,
		Subject:             subject,
		Details:             strings.Join(details, detailSeparator),
		AllDetails:          details,
		Date:                t.date,
		IsRange:             t.isRange,
		IsCommunicationHour: isComm,
		TableIndex:          t.tableIndex,
		DayIndex:            t.dayIndex,
	}
	if len(details) > 0 {
		e.Teacher = details[0]
	}
	if len(details) > 1 {
		e.Room = details[len(details)-1]
	}
	return e
}

// RowPair returns the period ordinal of a "N пара" fragment, or "" when it does not match.
func RowPair(text string) string {
	m := pairPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}

// RowTime normalizes a "HH.MM – HH.MM" fragment, falling back to model.DefaultTime.
func RowTime(text string) string {
	m := timePattern.FindStringSubmatch(text)
	if m == nil {
		return model.DefaultTime
	}
	return m[1] + " – " + m[2]
}

func collapseSpaces(s string) string {
	return strings.TrimSpace(spacePattern.ReplaceAllString(s, " "))
}
