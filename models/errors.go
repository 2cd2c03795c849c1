package models

import "errors"

// Pipeline errors. Per-day errors are recovered by the range aggregator;
// ErrInvalidRange and the lookup errors are surfaced to the caller.
var (
	ErrRenderTimeout     = errors.New("render timeout")
	ErrNavigation        = errors.New("navigation error")
	ErrTableNotFound     = errors.New("table not found")
	ErrMalformedTable    = errors.New("malformed table")
	ErrMissingTimeColumn = errors.New("time column missing")
	ErrInvalidRange      = errors.New("invalid date range")
	ErrFeedDownload      = errors.New("feed download error")
	ErrFeedParse         = errors.New("feed parse error")

	ErrUnknownCategory  = errors.New("unknown category")
	ErrUnknownSubset    = errors.New("unknown column subset")
	ErrUnknownColumn    = errors.New("unknown column")
	ErrNoValues         = errors.New("no values")
	ErrSnapshotNotFound = errors.New("snapshot not found")
)
