package racing

import "errors"

var (
	ErrUnknownCategory   = errors.New("unknown category")
	ErrUpstreamStatus    = errors.New("upstream returned error status")
	ErrMalformedResponse = errors.New("malformed upstream response")
	ErrFetcherNil        = errors.New("fetcher cannot be nil")
	ErrStoreRunning      = errors.New("store is already running")
)
