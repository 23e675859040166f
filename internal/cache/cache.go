// Package cache holds the in-memory snapshot of discovered dates and their lessons.
package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"timetable/internal/grouporder"
	"timetable/internal/model"
)

// Extractor is the interface for discovering dates and extracting their lessons.
type Extractor interface {
	Dates(ctx context.Context) ([]model.DateEntry, error)
	Schedule(ctx context.Context, pageURL, label string, order *grouporder.Order) ([]model.LessonEntry, error)
}

// state is never modified after it is published; writers build a new one and swap it in.
type state struct {
	dates      []model.DateEntry
	lastUpdate time.Time
	schedules  map[string][]model.LessonEntry
	failed     map[string]bool
}

func (s *state) date(urlDate string) (model.DateEntry, bool) {
	for _, d := range s.dates {
		if d.URLDate == urlDate {
			return d, true
		}
	}
	return model.DateEntry{}, false
}

// with returns a copy of s with one more schedule slot.
func (s *state) with(urlDate string, entries []model.LessonEntry, failed bool) *state {
	next := &state{
		dates:      s.dates,
		lastUpdate: s.lastUpdate,
		schedules:  make(map[string][]model.LessonEntry, len(s.schedules)+1),
		failed:     make(map[string]bool, len(s.failed)+1),
	}
	for k, v := range s.schedules {
		next.schedules[k] = v
	}
	for k, v := range s.failed {
		next.failed[k] = v
	}
	next.schedules[urlDate] = entries
	if failed {
		next.failed[urlDate] = true
	}
	return next
}

// Cache owns the dates, the per-date lessons and the shared group order.
type Cache struct {
	src     Extractor
	order   *grouporder.Order
	log     *slog.Logger
	workers int
	now     func() time.Time

	mu   sync.RWMutex
	snap *state
}

// New creates an empty Cache. Extraction during refresh is sequential.
func New(src Extractor, order *grouporder.Order, log *slog.Logger) *Cache {
	return &Cache{
		src:     src,
		order:   order,
		log:     log,
		workers: 1,
		now:     time.Now,
		snap: &state{
			schedules: map[string][]model.LessonEntry{},
			failed:    map[string]bool{},
		},
	}
}

// SetWorkers sets how many dates are extracted in parallel during a refresh.
func (c *Cache) SetWorkers(n int) {
	if n < 1 {
		n = 1
	}
	c.workers = n
}

// Order returns the group order shared with the extractor.
func (c *Cache) Order() *grouporder.Order {
	return c.order
}

// Refresh rediscovers the dates and re-extracts every schedule. The new
// snapshot is assembled aside and swapped in whole. When discovery yields
// nothing, or ctx is cancelled midway, the previous snapshot is kept.
// It reports whether the snapshot was replaced.
func (c *Cache) Refresh(ctx context.Context) bool {
	log := c.log.With("refresh_id", uuid.NewString())
	start := time.Now()

	dates, err := c.src.Dates(ctx)
	if err != nil {
		log.Error("discover dates", "error", err)
	}
	if len(dates) == 0 {
		log.Warn("no dates discovered, keeping previous snapshot")
		return false
	}

	type result struct {
		entries []model.LessonEntry
		failed  bool
	}
	results := make([]result, len(dates))

	var g errgroup.Group
	g.SetLimit(c.workers)
	for i, d := range dates {
		g.Go(func() error {
			log.Debug("extracting schedule", "date", d.DisplayDate)
			entries, err := c.src.Schedule(ctx, d.URL, d.DisplayDate, c.order)
			if err != nil {
				log.Error("extract schedule", "date", d.DisplayDate, "url", d.URL, "error", err)
				results[i] = result{entries: []model.LessonEntry{}, failed: true}
				return nil
			}
			results[i] = result{entries: entries}
			return nil
		})
	}
	_ = g.Wait()

	if ctx.Err() != nil {
		log.Warn("refresh cancelled, keeping previous snapshot", "error", ctx.Err())
		return false
	}

	next := &state{
		dates:      dates,
		lastUpdate: c.now(),
		schedules:  make(map[string][]model.LessonEntry, len(dates)),
		failed:     make(map[string]bool),
	}
	total := 0
	for i, d := range dates {
		next.schedules[d.URLDate] = results[i].entries
		if results[i].failed {
			next.failed[d.URLDate] = true
		}
		total += len(results[i].entries)
	}

	c.mu.Lock()
	c.snap = next
	c.mu.Unlock()

	log.Info("cache refreshed", "dates", len(dates), "entries", total,
		"failed", len(next.failed), "elapsed", time.Since(start))
	return true
}

// GetOrExtract returns the lessons cached for urlDate, extracting and storing
// them first when the slot is empty. An unknown urlDate yields StatusNotFound.
func (c *Cache) GetOrExtract(ctx context.Context, urlDate string) ([]model.LessonEntry, model.Status) {
	s := c.current()
	if entries, ok := s.schedules[urlDate]; ok {
		return entries, status(entries, s.failed[urlDate])
	}

	d, ok := s.date(urlDate)
	if !ok {
		return nil, model.StatusNotFound
	}

	entries, err := c.src.Schedule(ctx, d.URL, d.DisplayDate, c.order)
	failed := err != nil
	if failed {
		c.log.Error("extract schedule on demand", "date", d.DisplayDate, "url", d.URL, "error", err)
		entries = []model.LessonEntry{}
	}

	entries, failed = c.store(urlDate, entries, failed)
	return entries, status(entries, failed)
}

// store publishes a backfilled slot. A slot filled concurrently wins, and a
// date dropped by a refresh in the meantime is not stored.
func (c *Cache) store(urlDate string, entries []model.LessonEntry, failed bool) ([]model.LessonEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.snap.schedules[urlDate]; ok {
		return existing, c.snap.failed[urlDate]
	}
	if _, ok := c.snap.date(urlDate); !ok {
		return entries, failed
	}
	c.snap = c.snap.with(urlDate, entries, failed)
	return entries, failed
}

// Lookup finds the date entry for urlDate in the current snapshot.
func (c *Cache) Lookup(urlDate string) (model.DateEntry, bool) {
	return c.current().date(urlDate)
}

// Snapshot returns the current view. Its slices and maps must not be modified.
func (c *Cache) Snapshot() model.Snapshot {
	s := c.current()
	return model.Snapshot{
		Dates:      s.dates,
		LastUpdate: s.lastUpdate,
		Schedules:  s.schedules,
		Failed:     s.failed,
	}
}

func (c *Cache) current() *state {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

func status(entries []model.LessonEntry, failed bool) model.Status {
	switch {
	case failed:
		return model.StatusFailed
	case len(entries) == 0:
		return model.StatusEmpty
	default:
		return model.StatusOK
	}
}
