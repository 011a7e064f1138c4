package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/JakeFAU/kalaam-crawler/internal/crawler"
)

// RecordStore keeps kalaam records in a map keyed by id. It enforces the same
// constraints as the Postgres table: lyrics are required and a source URL
// belongs to exactly one id.
type RecordStore struct {
	mu       sync.RWMutex
	records  map[int64]crawler.Record
	bySource map[string]int64
}

// NewRecordStore constructs an empty RecordStore.
func NewRecordStore() *RecordStore {
	return &RecordStore{
		records:  make(map[int64]crawler.Record),
		bySource: make(map[string]int64),
	}
}

// Upsert inserts or replaces the record with the same id.
func (s *RecordStore) Upsert(_ context.Context, record crawler.Record, fetchedAt time.Time) error {
	if !record.HasLyrics() {
		return fmt.Errorf("upsert id=%d: %w", record.ID, crawler.ErrNoLyrics)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if owner, ok := s.bySource[record.SourceURL]; ok && owner != record.ID {
		return fmt.Errorf("upsert id=%d: %w", record.ID, crawler.ErrDuplicateSource)
	}
	if prev, ok := s.records[record.ID]; ok && prev.SourceURL != record.SourceURL {
		delete(s.bySource, prev.SourceURL)
	}
	record.FetchedAt = fetchedAt.UTC()
	s.records[record.ID] = cloneRecord(record)
	s.bySource[record.SourceURL] = record.ID
	return nil
}

// Get returns a copy of the record with the given id.
func (s *RecordStore) Get(_ context.Context, id int64) (crawler.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[id]
	if !ok {
		return crawler.Record{}, crawler.ErrNotFound
	}
	return cloneRecord(record), nil
}

// Search returns records whose title key equals key, followed by records whose
// key contains it. Each group is ordered by id.
func (s *RecordStore) Search(_ context.Context, key string, limit int) ([]crawler.Record, error) {
	key = strings.TrimSpace(key)
	if key == "" || limit <= 0 {
		return []crawler.Record{}, nil
	}
	s.mu.RLock()
	var exact, partial []crawler.Record
	for _, record := range s.records {
		switch {
		case record.TitleKey == key:
			exact = append(exact, cloneRecord(record))
		case strings.Contains(record.TitleKey, key):
			partial = append(partial, cloneRecord(record))
		}
	}
	s.mu.RUnlock()

	byID := func(list []crawler.Record) {
		sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	}
	byID(exact)
	byID(partial)
	out := append(exact, partial...)
	if len(out) > limit {
		out = out[:limit]
	}
	if out == nil {
		out = []crawler.Record{}
	}
	return out, nil
}

// Len reports how many records are stored.
func (s *RecordStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func cloneRecord(r crawler.Record) crawler.Record {
	r.Reciter = cloneString(r.Reciter)
	r.Poet = cloneString(r.Poet)
	r.Category = cloneString(r.Category)
	r.LyricsRoman = cloneString(r.LyricsRoman)
	r.LyricsUrdu = cloneString(r.LyricsUrdu)
	r.MediaLink = cloneString(r.MediaLink)
	return r
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
