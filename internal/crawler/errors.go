package crawler

import "errors"

var (
	// ErrMissingRequiredField marks a page whose id or title could not be
	// extracted. Such pages are dropped and never retried.
	ErrMissingRequiredField = errors.New("missing required field")
	// ErrMalformedID marks an id query parameter that is present but not a
	// non-negative integer.
	ErrMalformedID = errors.New("malformed id")
	// ErrNoLyrics is returned by stores for records without any lyric text.
	ErrNoLyrics = errors.New("record has no lyrics")
	// ErrDuplicateSource is returned by stores when a source URL is already
	// stored under a different id.
	ErrDuplicateSource = errors.New("source url already stored under another id")
	// ErrNotFound is returned by stores when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrQueueClosed is returned by queues that were closed and drained.
	ErrQueueClosed = errors.New("queue closed")
)
