// Package model defines the domain types used across the application.
package model

import "time"

// DefaultTime is the slot time used when a row carries no parsable time range.
const DefaultTime = "8.30 – 9.00"

// CommunicationHour is the canonical subject of a communication slot.
const CommunicationHour = "Час общения"

// DateEntry represents one publishable schedule date.
type DateEntry struct {
	DisplayDate string `json:"displayDate"`
	URL         string `json:"url"`
	URLDate     string `json:"urlDate"`
	SortKey     int    `json:"sortKey"`
}

// IsRange reports whether the date denotes several days sharing one page.
func (d DateEntry) IsRange() bool {
	return IsRangeLabel(d.DisplayDate)
}

// LessonEntry represents one lesson slot for one group on one date.
type LessonEntry struct {
	Group               string   `json:"group"`
	Time                string   `json:"time"`
	Pair                string   `json:"pair"`
	Subject             string   `json:"subject"`
	Details             string   `json:"details"`
	Teacher             string   `json:"teacher"`
	Room                string   `json:"room"`
	AllDetails          []string `json:"allDetails"`
	Date                string   `json:"date"`
	IsRange             bool     `json:"isRange"`
	IsCommunicationHour bool     `json:"isCommunicationHour"`
	TableIndex          int      `json:"tableIndex"`
	DayIndex            int      `json:"dayIndex"`
}

// BellKind defines the type of a bell schedule row.
type BellKind string

// Supported bell row kinds.
const (
	BellPair    BellKind = "pair"
	BellBreak   BellKind = "break"
	BellSection BellKind = "section"
)

// BellScheduleItem is one row of the bell timetable.
type BellScheduleItem struct {
	Pair        string   `json:"pair"`
	Time        string   `json:"time"`
	Description string   `json:"description"`
	Type        BellKind `json:"type"`
}

// BellSchedule holds the weekday and Saturday bell timetables.
type BellSchedule struct {
	Weekday  []BellScheduleItem `json:"weekday"`
	Saturday []BellScheduleItem `json:"saturday"`
}

// DaySchedule is one sub-day of a range date.
type DaySchedule struct {
	Day           string        `json:"day"`
	Schedule      []LessonEntry `json:"schedule"`
	IsPartOfRange bool          `json:"isPartOfRange"`
}

// Snapshot is a consistent view of the cached dates and schedules.
type Snapshot struct {
	Dates      []DateEntry
	LastUpdate time.Time
	Schedules  map[string][]LessonEntry
	Failed     map[string]bool
}

// Status classifies the outcome of a cache or query lookup.
type Status int

// Lookup outcomes.
const (
	StatusOK Status = iota
	StatusEmpty
	StatusFailed
	StatusNotFound
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusEmpty:
		return "empty"
	case StatusFailed:
		return "failed"
	case StatusNotFound:
		return "not_found"
	}
	return "unknown"
}
