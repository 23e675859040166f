package fetcher

import (
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

// LevelHTTP logs every outbound request; it sits between Debug and Info.
const LevelHTTP slog.Level = -2

// ClientOptions configures the outbound HTTP client.
type ClientOptions struct {
	Timeout      time.Duration
	Retries      int
	RPS          float64
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
}

// NewClient builds a retrying, rate limited HTTP client.
// Each attempt is bounded by opts.Timeout.
func NewClient(opts ClientOptions, log *slog.Logger) *http.Client {
	if opts.RetryWaitMin == 0 {
		opts.RetryWaitMin = 200 * time.Millisecond
	}
	if opts.RetryWaitMax == 0 {
		opts.RetryWaitMax = 2 * time.Second
	}
	rps := rate.Limit(opts.RPS)
	if opts.RPS <= 0 {
		rps = rate.Inf
	}

	var transport http.RoundTripper = &loggingRoundTripper{log: log, transport: http.DefaultTransport}
	transport = &pacedRoundTripper{
		transport: transport,
		pacer:     NewSourcePacer(rps, 1, log),
	}

	client := retryablehttp.NewClient()
	client.HTTPClient = &http.Client{Timeout: opts.Timeout, Transport: transport}
	client.RetryMax = opts.Retries
	client.RetryWaitMin = opts.RetryWaitMin
	client.RetryWaitMax = opts.RetryWaitMax
	client.Logger = log
	client.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
		if attempt > 0 {
			log.Warn("retrying request", "url", req.URL.String(), "attempt", attempt)
		}
	}
	return client.StandardClient()
}

type loggingRoundTripper struct {
	log       *slog.Logger
	transport http.RoundTripper
	requestID atomic.Int32
}

func (rt *loggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	if !rt.log.Enabled(ctx, LevelHTTP) {
		return rt.transport.RoundTrip(req)
	}

	id := rt.requestID.Add(1)
	start := time.Now()
	rt.log.Log(ctx, LevelHTTP, "outgoing request", "method", req.Method, "url", req.URL.String(), "id", id)

	resp, err := rt.transport.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	rt.log.Log(ctx, LevelHTTP, "response received",
		"status", resp.Status, "url", req.URL.String(), "id", id, "elapsed", time.Since(start))
	return resp, nil
}
