package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// Refresher is the interface for rebuilding the cached timetable.
type Refresher interface {
	Refresh(ctx context.Context) bool
}

// Scheduler periodically refreshes the cache and on request.
type Scheduler struct {
	cache   Refresher
	log     *slog.Logger
	tick    time.Duration
	trigger chan struct{}
}

// New creates a Scheduler with the default 30-minute interval.
func New(cache Refresher, log *slog.Logger) *Scheduler {
	return &Scheduler{
		cache:   cache,
		log:     log,
		tick:    30 * time.Minute,
		trigger: make(chan struct{}, 1),
	}
}

// SetTickInterval overrides the default 30-minute refresh interval.
func (s *Scheduler) SetTickInterval(d time.Duration) {
	s.tick = d
}

// Trigger asks for an immediate refresh without waiting for it.
// Requests made while one is already pending are coalesced.
func (s *Scheduler) Trigger() bool {
	select {
	case s.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// Run refreshes once, then on every tick or trigger, blocking until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.refresh(ctx, "startup")

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refresh(ctx, "timer")
		case <-s.trigger:
			s.refresh(ctx, "on demand")
			ticker.Reset(s.tick)
		}
	}
}

func (s *Scheduler) refresh(ctx context.Context, reason string) {
	s.log.Info("refreshing cache", "reason", reason)
	if !s.cache.Refresh(ctx) {
		s.log.Warn("cache not replaced", "reason", reason)
	}
}
