package fetcher

import "errors"

// ErrTransport reports a remote fetch that timed out, failed on the network or
// answered with a non-OK status. Structural problems in a fetched page wrap
// parser.ErrMarkup instead.
var ErrTransport = errors.New("transport failure")
