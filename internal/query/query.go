// Package query answers read requests over the cached timetable.
//
// Reads never fail on missing data: absence yields empty results. The one
// condition reported to callers is an unknown date, as model.StatusNotFound.
package query

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"timetable/internal/filter"
	"timetable/internal/grouporder"
	"timetable/internal/model"
	"timetable/internal/parser"
)

// Store is the read side of the cache.
type Store interface {
	GetOrExtract(ctx context.Context, urlDate string) ([]model.LessonEntry, model.Status)
	Lookup(urlDate string) (model.DateEntry, bool)
	Snapshot() model.Snapshot
	Order() *grouporder.Order
}

// BellSource is the interface for reading the published bell timetable.
type BellSource interface {
	Bells(ctx context.Context) (model.BellSchedule, error)
}

// DateList is the current list of dates and when it was discovered.
// Failed holds the URL dates whose extraction failed, in date order.
type DateList struct {
	Dates      []model.DateEntry
	Failed     []string
	LastUpdate time.Time
}

// GroupSchedule is the lessons of the matching groups on one date.
type GroupSchedule struct {
	Date     model.DateEntry
	Schedule []model.LessonEntry
	Status   model.Status
}

// Split is a group schedule divided into the days of a range date.
// Schedule is set for single dates, Days for range dates.
type Split struct {
	Date     model.DateEntry
	IsRange  bool
	Schedule []model.LessonEntry
	Days     []model.DaySchedule
	Count    int
	Status   model.Status
}

// Service implements the read operations.
type Service struct {
	store    Store
	bells    BellSource
	log      *slog.Logger
	bellsTTL time.Duration
	now      func() time.Time

	flight   singleflight.Group
	mu       sync.Mutex
	cached   *model.BellSchedule
	cachedAt time.Time
}

// New creates a Service. The bell schedule is kept for six hours once read.
func New(store Store, bells BellSource, log *slog.Logger) *Service {
	return &Service{
		store:    store,
		bells:    bells,
		log:      log,
		bellsTTL: 6 * time.Hour,
		now:      time.Now,
	}
}

// SetBellsTTL overrides how long a bell schedule read from the source is reused.
func (s *Service) SetBellsTTL(d time.Duration) {
	s.bellsTTL = d
}

// ListDates returns the current dates and their discovery time.
func (s *Service) ListDates() DateList {
	snap := s.store.Snapshot()
	dates := snap.Dates
	if dates == nil {
		dates = []model.DateEntry{}
	}
	failed := make([]string, 0, len(snap.Failed))
	for _, d := range dates {
		if snap.Failed[d.URLDate] {
			failed = append(failed, d.URLDate)
		}
	}
	return DateList{Dates: dates, Failed: failed, LastUpdate: snap.LastUpdate}
}

// ScheduleForDate returns every lesson of urlDate, extracting it on a cache miss.
func (s *Service) ScheduleForDate(ctx context.Context, urlDate string) ([]model.LessonEntry, model.Status) {
	entries, st := s.store.GetOrExtract(ctx, urlDate)
	if entries == nil {
		entries = []model.LessonEntry{}
	}
	return entries, st
}

// ScheduleForGroup returns the lessons of urlDate whose group contains group.
func (s *Service) ScheduleForGroup(ctx context.Context, urlDate, group string) GroupSchedule {
	d, ok := s.store.Lookup(urlDate)
	if !ok {
		return GroupSchedule{Schedule: []model.LessonEntry{}, Status: model.StatusNotFound}
	}
	entries, st := s.ScheduleForDate(ctx, urlDate)
	return GroupSchedule{Date: d, Schedule: filter.ByGroup(entries, group), Status: st}
}

// ScheduleForGroupAllDates concatenates the matching lessons of every cached
// date, in date order. It does not extract missing dates.
func (s *Service) ScheduleForGroupAllDates(group string) []model.LessonEntry {
	snap := s.store.Snapshot()
	out := make([]model.LessonEntry, 0)
	for _, d := range snap.Dates {
		out = append(out, filter.ByGroup(snap.Schedules[d.URLDate], group)...)
	}
	return out
}

// SplitScheduleForGroup divides a group schedule into the days of a range date.
// Tables are paired with the comma-separated day labels by position; labels
// without a table get an empty day and tables beyond the last label fold into it.
func (s *Service) SplitScheduleForGroup(ctx context.Context, urlDate, group string) Split {
	gs := s.ScheduleForGroup(ctx, urlDate, group)
	if gs.Status == model.StatusNotFound {
		return Split{Schedule: gs.Schedule, Status: gs.Status}
	}
	if !gs.Date.IsRange() {
		return Split{
			Date:     gs.Date,
			Schedule: gs.Schedule,
			Count:    len(gs.Schedule),
			Status:   gs.Status,
		}
	}

	days := SplitDays(model.RangeLabels(gs.Date.DisplayDate), gs.Schedule)
	count := 0
	for _, d := range days {
		count += len(d.Schedule)
	}
	return Split{Date: gs.Date, IsRange: true, Days: days, Count: count, Status: gs.Status}
}

// SplitDays pairs the tables of a range date with its day labels.
func SplitDays(labels []string, entries []model.LessonEntry) []model.DaySchedule {
	buckets := make(map[int][]model.LessonEntry)
	for _, e := range entries {
		buckets[e.TableIndex] = append(buckets[e.TableIndex], e)
	}
	tables := make([]int, 0, len(buckets))
	for idx := range buckets {
		tables = append(tables, idx)
	}
	sort.Ints(tables)

	days := make([]model.DaySchedule, 0, len(labels))
	for i, idx := range tables {
		if i < len(labels) {
			days = append(days, model.DaySchedule{Day: labels[i], Schedule: buckets[idx], IsPartOfRange: true})
			continue
		}
		last := &days[len(days)-1]
		last.Schedule = append(last.Schedule, buckets[idx]...)
	}
	for len(days) < len(labels) {
		days = append(days, model.DaySchedule{Day: labels[len(days)], Schedule: []model.LessonEntry{}, IsPartOfRange: true})
	}
	return days
}

// GroupOrder returns the process-wide group order. Before any page has been
// harvested it falls back to the first-seen groups of the first cached date.
func (s *Service) GroupOrder() []string {
	if groups := s.store.Order().Snapshot(); len(groups) > 0 {
		return groups
	}

	snap := s.store.Snapshot()
	for _, d := range snap.Dates {
		entries, ok := snap.Schedules[d.URLDate]
		if !ok {
			continue
		}
		if groups := filter.Groups(entries); groups != nil {
			return groups
		}
		break
	}
	return []string{}
}

const bellsKey = "bells"

// BellSchedule returns the bell timetable. A schedule read from the source is
// reused for the bells TTL. Once it expires the stale copy is still returned
// while a single background read replaces it. Before the first successful
// read, concurrent callers share one read and get the built-in default if it
// fails; the next call tries the source again.
func (s *Service) BellSchedule(ctx context.Context) model.BellSchedule {
	s.mu.Lock()
	cached, at := s.cached, s.cachedAt
	s.mu.Unlock()

	// the read outlives any single request that starts it
	readCtx := context.WithoutCancel(ctx)

	if cached != nil {
		if s.now().Sub(at) >= s.bellsTTL {
			s.flight.DoChan(bellsKey, s.readBells(readCtx))
		}
		return *cached
	}

	select {
	case res := <-s.flight.DoChan(bellsKey, s.readBells(readCtx)):
		if res.Err != nil {
			return parser.DefaultBells()
		}
		return res.Val.(model.BellSchedule)
	case <-ctx.Done():
		return parser.DefaultBells()
	}
}

func (s *Service) readBells(ctx context.Context) func() (any, error) {
	return func() (any, error) {
		bells, err := s.bells.Bells(ctx)
		if err != nil {
			s.log.Error("read bell schedule", "error", err)
			return nil, err
		}

		s.mu.Lock()
		s.cached = &bells
		s.cachedAt = s.now()
		s.mu.Unlock()
		return bells, nil
	}
}
