package fetcher

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

const (
	backoffFactor  = 0.2 // keep a fifth of the rate when the source struggles
	recoveryFactor = 1.2
	floorRPS       = 1
)

// Pacer spaces out requests to the source and reacts to how it answers.
type Pacer interface {
	Wait(ctx context.Context) error
	Backoff()
	Recover()
}

// SourcePacer slows down sharply while the source is overloaded and speeds
// back up gradually, never beyond the configured rate.
type SourcePacer struct {
	log *slog.Logger

	mu      sync.Mutex
	current rate.Limit
	ceiling rate.Limit
	limiter *rate.Limiter
}

// NewSourcePacer creates a pacer allowing rps requests per second with the given burst.
func NewSourcePacer(rps rate.Limit, burst int, log *slog.Logger) *SourcePacer {
	return &SourcePacer{
		log:     log,
		current: rps,
		ceiling: rps,
		limiter: rate.NewLimiter(rps, burst),
	}
}

// Wait blocks until the next request may go out or ctx is done.
func (p *SourcePacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

// Backoff cuts the rate, never below one request per second.
// An unlimited pacer stays unlimited.
func (p *SourcePacer) Backoff() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ceiling == rate.Inf {
		return
	}

	next := max(p.current*backoffFactor, floorRPS)
	if next < p.current {
		p.log.Warn("source overloaded, slowing down", "rps", float64(next))
	}
	p.apply(next)
}

// Recover raises the rate toward the configured ceiling.
func (p *SourcePacer) Recover() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ceiling == rate.Inf {
		return
	}
	p.apply(min(p.current*recoveryFactor, p.ceiling))
}

// Rate returns the current requests-per-second allowance.
func (p *SourcePacer) Rate() rate.Limit {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

func (p *SourcePacer) apply(l rate.Limit) {
	p.current = l
	p.limiter.SetLimit(l)
}

// overloaded reports whether a response says the source cannot keep up.
// A plain 404 for a withdrawn page says nothing about its load.
func overloaded(resp *http.Response) bool {
	return resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError
}

type pacedRoundTripper struct {
	transport http.RoundTripper
	pacer     Pacer
}

func (rt *pacedRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := rt.pacer.Wait(req.Context()); err != nil {
		return nil, err
	}

	resp, err := rt.transport.RoundTrip(req)
	switch {
	case err != nil:
		rt.pacer.Backoff()
		return nil, err
	case overloaded(resp):
		rt.pacer.Backoff()
	case resp.StatusCode < http.StatusBadRequest:
		rt.pacer.Recover()
	}
	return resp, nil
}
