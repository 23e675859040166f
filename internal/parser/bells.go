package parser

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"timetable/internal/model"
)

const (
	weekdayHeading  = "ПОНЕДЕЛЬНИК-ПЯТНИЦА"
	saturdayHeading = "СУББОТА"
	breakWord       = "перемена"
)

// shiftHeadings are the section captions recorded as zero-duration weekday rows.
var shiftHeadings = []string{"Первая смена", "Дополнительная пара", "Вторая смена"}

// ParseBells extracts the bell timetable. Elements are visited in document order;
// the day headings switch the target list between weekday and Saturday.
func ParseBells(doc *goquery.Document) (model.BellSchedule, error) {
	bells := model.BellSchedule{
		Weekday:  []model.BellScheduleItem{},
		Saturday: []model.BellScheduleItem{},
	}
	saturday := false

	push := func(item model.BellScheduleItem) {
		if saturday {
			bells.Saturday = append(bells.Saturday, item)
			return
		}
		bells.Weekday = append(bells.Weekday, item)
	}

	doc.Find("body p, body .table-wrapper").Each(func(_ int, el *goquery.Selection) {
		text := strings.TrimSpace(el.Text())

		switch {
		case strings.Contains(text, weekdayHeading):
			saturday = false
			return
		case strings.Contains(text, saturdayHeading):
			saturday = true
			return
		}

		if el.HasClass("table-wrapper") {
			el.Find("table tr").Each(func(_ int, row *goquery.Selection) {
				if item, ok := bellRow(row); ok {
					push(item)
				}
			})
			return
		}

		for _, h := range shiftHeadings {
			if strings.Contains(text, h) {
				bells.Weekday = append(bells.Weekday, model.BellScheduleItem{
					Pair:        string(model.BellSection),
					Description: h,
					Type:        model.BellSection,
				})
				return
			}
		}
	})

	if len(bells.Weekday) == 0 && len(bells.Saturday) == 0 {
		return bells, fmt.Errorf("%w: bell page has no rows", ErrMarkup)
	}
	return bells, nil
}

// bellRow reads a break (one cell) or a period (two cells) row.
func bellRow(row *goquery.Selection) (model.BellScheduleItem, bool) {
	cells := row.Find("td")
	switch cells.Length() {
	case 1:
		text := strings.TrimSpace(row.Text())
		if !strings.Contains(text, breakWord) {
			return model.BellScheduleItem{}, false
		}
		return breakItem(text), true
	case 2:
		pair := pairPattern.FindStringSubmatch(strings.TrimSpace(cells.Eq(0).Text()))
		slot := timePattern.FindStringSubmatch(strings.TrimSpace(cells.Eq(1).Text()))
		if pair == nil || slot == nil {
			return model.BellScheduleItem{}, false
		}
		return pairItem(pair[1], slot[1]+" – "+slot[2]), true
	}
	return model.BellScheduleItem{}, false
}

func pairItem(n, slot string) model.BellScheduleItem {
	return model.BellScheduleItem{Pair: n, Time: slot, Description: n + " пара", Type: model.BellPair}
}

func breakItem(text string) model.BellScheduleItem {
	return model.BellScheduleItem{Pair: string(model.BellBreak), Time: text, Description: breakWord, Type: model.BellBreak}
}

// DefaultBells returns the built-in bell timetable used when the page cannot be read.
func DefaultBells() model.BellSchedule {
	return model.BellSchedule{
		Weekday: []model.BellScheduleItem{
			pairItem("1", "8.30 – 10.00"),
			breakItem("перемена 10 минут"),
			pairItem("2", "10.10 – 11.40"),
			breakItem("перемена 20 минут"),
			pairItem("3", "12.00 – 13.30"),
			breakItem("перемена 10 минут"),
			pairItem("4", "13.40 – 15.10"),
			breakItem("перемена 20 минут"),
			pairItem("5", "15.30 – 17.00"),
			breakItem("перемена 10 минут"),
			pairItem("6", "17.10 – 18.40"),
			breakItem("перемена 10 минут"),
			pairItem("7", "18.50 – 20.20"),
		},
		Saturday: []model.BellScheduleItem{
			pairItem("1", "8.30 – 10.00"),
			breakItem("перемена 5 минут"),
			pairItem("2", "10.05 – 11.35"),
			breakItem("перемена 20 минут"),
			pairItem("3", "11.55 – 13.25"),
			breakItem("перемена 5 минут"),
			pairItem("4", "13.30 – 15.00"),
			breakItem("перемена 5 минут"),
			pairItem("5", "15.05 – 16.35"),
			breakItem("перемена 5 минут"),
			pairItem("6", "16.40 – 18.10"),
		},
	}
}
