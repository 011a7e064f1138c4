package crawler

import (
	"context"
	"time"
)

// Fetcher fetches a URL and returns the body plus metadata.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) (FetchResponse, error)
}

// Queue provides enqueue/dequeue semantics for detail targets.
type Queue interface {
	Enqueue(ctx context.Context, item QueueItem) error
	Dequeue(ctx context.Context) (QueueItem, error)
}

// RecordStore persists kalaam records and answers lookups.
type RecordStore interface {
	// Upsert inserts or replaces the record keyed by its id.
	Upsert(ctx context.Context, record Record, fetchedAt time.Time) error
	Get(ctx context.Context, id int64) (Record, error)
	// Search returns records whose phonetic title key matches key, best first.
	Search(ctx context.Context, key string, limit int) ([]Record, error)
}

// BlobStore writes raw artifacts and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
