package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"timetable/internal/grouporder"
	"timetable/internal/model"
)

type mockExtractor struct {
	mu        sync.Mutex
	dates     []model.DateEntry
	datesErr  error
	schedules map[string][]model.LessonEntry
	groups    map[string][]string
	failing   map[string]bool
	calls     map[string]int
}

func (m *mockExtractor) Dates(_ context.Context) ([]model.DateEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dates, m.datesErr
}

func (m *mockExtractor) Schedule(_ context.Context, pageURL, _ string, order *grouporder.Order) ([]model.LessonEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = map[string]int{}
	}
	m.calls[pageURL]++
	if m.failing[pageURL] {
		return nil, errors.New("boom")
	}
	for _, g := range m.groups[pageURL] {
		order.AddIfAbsent(g)
	}
	return m.schedules[pageURL], nil
}

func (m *mockExtractor) callCount(pageURL string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[pageURL]
}

func (m *mockExtractor) setDates(dates []model.DateEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dates = dates
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var (
	sep1 = model.DateEntry{DisplayDate: "1 сентября", URL: "u/1", URLDate: "1-sep", SortKey: 20250901}
	sep2 = model.DateEntry{DisplayDate: "2 сентября", URL: "u/2", URLDate: "2-sep", SortKey: 20250902}
	sep3 = model.DateEntry{DisplayDate: "3 сентября", URL: "u/3", URLDate: "3-sep", SortKey: 20250903}
)

func lessons(date string, groups ...string) []model.LessonEntry {
	out := make([]model.LessonEntry, 0, len(groups))
	for _, g := range groups {
		out = append(out, model.LessonEntry{Group: g, Subject: "Математика", Date: date, Time: model.DefaultTime})
	}
	return out
}

func newExtractor() *mockExtractor {
	return &mockExtractor{
		dates: []model.DateEntry{sep1, sep2},
		schedules: map[string][]model.LessonEntry{
			"u/1": lessons("1 сентября", "И-25-1", "П-24"),
			"u/2": lessons("2 сентября", "П-24"),
			"u/3": lessons("3 сентября", "Б-23"),
		},
		groups: map[string][]string{
			"u/1": {"И-25-1", "П-24"},
			"u/2": {"П-24", "К-22"},
			"u/3": {"Б-23", "И-25-1"},
		},
	}
}

func newTestCache(src Extractor) *Cache {
	c := New(src, grouporder.New(), discardLogger())
	c.now = func() time.Time { return time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC) }
	return c
}

func TestRefresh(t *testing.T) {
	src := newExtractor()
	c := newTestCache(src)

	if !c.Refresh(context.Background()) {
		t.Fatal("expected snapshot to be replaced")
	}

	snap := c.Snapshot()
	if diff := cmp.Diff([]model.DateEntry{sep1, sep2}, snap.Dates); diff != "" {
		t.Errorf("dates mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC), snap.LastUpdate); diff != "" {
		t.Errorf("last update mismatch (-want +got):\n%s", diff)
	}
	want := map[string][]model.LessonEntry{
		"1-sep": lessons("1 сентября", "И-25-1", "П-24"),
		"2-sep": lessons("2 сентября", "П-24"),
	}
	if diff := cmp.Diff(want, snap.Schedules); diff != "" {
		t.Errorf("schedules mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"И-25-1", "П-24", "К-22"}, c.Order().Snapshot()); diff != "" {
		t.Errorf("group order mismatch (-want +got):\n%s", diff)
	}
}

func TestRefreshKeepsSnapshotWhenDiscoveryEmpty(t *testing.T) {
	tests := []struct {
		name     string
		dates    []model.DateEntry
		datesErr error
	}{
		{name: "no dates"},
		{name: "discovery error", datesErr: errors.New("timeout")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newExtractor()
			c := newTestCache(src)
			c.Refresh(context.Background())
			before := c.Snapshot()

			src.mu.Lock()
			src.dates, src.datesErr = tt.dates, tt.datesErr
			src.mu.Unlock()
			c.now = func() time.Time { return time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC) }

			if c.Refresh(context.Background()) {
				t.Fatal("expected snapshot to be kept")
			}
			if diff := cmp.Diff(before, c.Snapshot()); diff != "" {
				t.Errorf("snapshot changed (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRefreshReplacesWholeSnapshot(t *testing.T) {
	src := newExtractor()
	c := newTestCache(src)
	c.Refresh(context.Background())

	src.setDates([]model.DateEntry{sep3})
	c.Refresh(context.Background())

	snap := c.Snapshot()
	if _, ok := snap.Schedules["1-sep"]; ok {
		t.Error("stale schedule survived refresh")
	}
	if diff := cmp.Diff(lessons("3 сентября", "Б-23"), snap.Schedules["3-sep"]); diff != "" {
		t.Errorf("schedule mismatch (-want +got):\n%s", diff)
	}

	// earlier positions stay put, new labels go to the end
	if diff := cmp.Diff([]string{"И-25-1", "П-24", "К-22", "Б-23"}, c.Order().Snapshot()); diff != "" {
		t.Errorf("group order mismatch (-want +got):\n%s", diff)
	}
}

func TestRefreshFailedDateLeavesEmptySlot(t *testing.T) {
	src := newExtractor()
	src.failing = map[string]bool{"u/2": true}
	c := newTestCache(src)

	if !c.Refresh(context.Background()) {
		t.Fatal("expected snapshot to be replaced")
	}

	entries, st := c.GetOrExtract(context.Background(), "2-sep")
	if diff := cmp.Diff(model.StatusFailed, st); diff != "" {
		t.Errorf("status mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]model.LessonEntry{}, entries); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(1, src.callCount("u/2")); diff != "" {
		t.Errorf("failed slot was re-extracted (-want +got):\n%s", diff)
	}

	_, st = c.GetOrExtract(context.Background(), "1-sep")
	if diff := cmp.Diff(model.StatusOK, st); diff != "" {
		t.Errorf("status mismatch (-want +got):\n%s", diff)
	}
}

func TestRefreshParallelMatchesSequential(t *testing.T) {
	sequential := newTestCache(newExtractor())
	sequential.Refresh(context.Background())

	parallel := newTestCache(newExtractor())
	parallel.SetWorkers(4)
	parallel.Refresh(context.Background())

	if diff := cmp.Diff(sequential.Snapshot(), parallel.Snapshot()); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestRefreshCancelledKeepsSnapshot(t *testing.T) {
	c := newTestCache(newExtractor())
	before := c.Snapshot()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if c.Refresh(ctx) {
		t.Fatal("expected snapshot to be kept")
	}
	if diff := cmp.Diff(before, c.Snapshot()); diff != "" {
		t.Errorf("snapshot changed (-want +got):\n%s", diff)
	}
}

func TestGetOrExtract(t *testing.T) {
	src := newExtractor()
	c := newTestCache(src)
	c.Refresh(context.Background())

	// a refresh that missed nothing serves from the cache
	entries, st := c.GetOrExtract(context.Background(), "1-sep")
	if diff := cmp.Diff(model.StatusOK, st); diff != "" {
		t.Errorf("status mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(2, len(entries)); diff != "" {
		t.Errorf("entry count mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(1, src.callCount("u/1")); diff != "" {
		t.Errorf("extract calls mismatch (-want +got):\n%s", diff)
	}

	_, st = c.GetOrExtract(context.Background(), "unknown")
	if diff := cmp.Diff(model.StatusNotFound, st); diff != "" {
		t.Errorf("status mismatch (-want +got):\n%s", diff)
	}
}

func TestGetOrExtractBackfills(t *testing.T) {
	src := newExtractor()
	c := newTestCache(src)
	c.snap = &state{
		dates:     []model.DateEntry{sep1, sep3},
		schedules: map[string][]model.LessonEntry{"1-sep": lessons("1 сентября", "И-25-1")},
		failed:    map[string]bool{},
	}
	before := c.Snapshot()

	for i := 0; i < 3; i++ {
		entries, st := c.GetOrExtract(context.Background(), "3-sep")
		if diff := cmp.Diff(model.StatusOK, st); diff != "" {
			t.Errorf("status mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff(lessons("3 сентября", "Б-23"), entries); diff != "" {
			t.Errorf("entries mismatch (-want +got):\n%s", diff)
		}
	}
	if diff := cmp.Diff(1, src.callCount("u/3")); diff != "" {
		t.Errorf("extract calls mismatch (-want +got):\n%s", diff)
	}

	if _, ok := before.Schedules["3-sep"]; ok {
		t.Error("backfill mutated a previously returned snapshot")
	}
	if _, ok := c.Snapshot().Schedules["3-sep"]; !ok {
		t.Error("backfilled slot not stored")
	}
}

func TestGetOrExtractEmptyDay(t *testing.T) {
	src := newExtractor()
	src.schedules["u/2"] = []model.LessonEntry{}
	c := newTestCache(src)
	c.Refresh(context.Background())

	_, st := c.GetOrExtract(context.Background(), "2-sep")
	if diff := cmp.Diff(model.StatusEmpty, st); diff != "" {
		t.Errorf("status mismatch (-want +got):\n%s", diff)
	}
}

func TestConcurrentRefreshAndBackfill(t *testing.T) {
	src := newExtractor()
	src.dates = []model.DateEntry{sep1, sep2, sep3}
	c := newTestCache(src)
	c.Refresh(context.Background())

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.Refresh(context.Background())
		}()
		go func() {
			defer wg.Done()
			for _, d := range []string{"1-sep", "2-sep", "3-sep"} {
				entries, st := c.GetOrExtract(context.Background(), d)
				if st != model.StatusOK || len(entries) == 0 {
					t.Errorf("date %s: status %v with %d entries", d, st, len(entries))
				}
			}
		}()
	}
	wg.Wait()
}

func TestLookup(t *testing.T) {
	c := newTestCache(newExtractor())
	c.Refresh(context.Background())

	got, ok := c.Lookup("2-sep")
	if !ok {
		t.Fatal("expected date to be found")
	}
	if diff := cmp.Diff(sep2, got); diff != "" {
		t.Errorf("date mismatch (-want +got):\n%s", diff)
	}
	if _, ok := c.Lookup("nope"); ok {
		t.Error("unexpected date found")
	}
}
