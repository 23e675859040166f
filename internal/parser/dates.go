// Package parser extracts timetable data from the published HTML pages.
//
// Every function here works on an already fetched goquery document and does no I/O.
package parser

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"timetable/internal/model"
)

// ErrMarkup reports that an expected structural element was absent.
var ErrMarkup = errors.New("markup mismatch")

// UnsortedKey is the sort key of a label without a day number.
const UnsortedKey = 99999999

// bellsLabelMarker marks the index button that links to the bell page.
const bellsLabelMarker = "звонков"

var firstNumber = regexp.MustCompile(`(\d+)`)

// months lists genitive month names in calendar order; the first contained name wins.
var months = []string{
	"января", "февраля", "марта", "апреля", "мая", "июня",
	"июля", "августа", "сентября", "октября", "ноября", "декабря",
}

// ParseDates extracts the date buttons of the index page.
// base is the origin prefixed to each href, prefix is the path stripped to build the URL date.
// Entries are deduplicated by display label and sorted by sort key, keeping discovery
// order for equal keys.
func ParseDates(doc *goquery.Document, base, prefix string, year int) ([]model.DateEntry, error) {
	buttons := doc.Find(".date-button")
	if buttons.Length() == 0 {
		return nil, fmt.Errorf("%w: no date buttons on index page", ErrMarkup)
	}

	seen := make(map[string]struct{})
	dates := make([]model.DateEntry, 0, buttons.Length())
	buttons.Each(func(_ int, s *goquery.Selection) {
		label := strings.TrimSpace(s.Find(".day-number").Text())
		href, _ := s.Attr("href")
		if label == "" || href == "" || strings.Contains(label, bellsLabelMarker) {
			return
		}
		if _, ok := seen[label]; ok {
			return
		}
		seen[label] = struct{}{}

		dates = append(dates, model.DateEntry{
			DisplayDate: label,
			URL:         base + href,
			URLDate:     decodeURLDate(strings.Replace(href, prefix, "", 1)),
			SortKey:     SortKey(label, year),
		})
	})

	sort.SliceStable(dates, func(i, j int) bool {
		return dates[i].SortKey < dates[j].SortKey
	})
	return dates, nil
}

// SortKey encodes year*10000 + month*100 + day for a published label.
// The day is the first number in the label. A label without a month name sorts
// as January, a label without a number sorts last.
func SortKey(label string, year int) int {
	m := firstNumber.FindStringSubmatch(label)
	if m == nil {
		return UnsortedKey
	}
	day, err := strconv.Atoi(m[1])
	if err != nil {
		return UnsortedKey
	}

	month := 1
	for i, name := range months {
		if strings.Contains(label, name) {
			month = i + 1
			break
		}
	}
	return year*10000 + month*100 + day
}

func decodeURLDate(raw string) string {
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}
