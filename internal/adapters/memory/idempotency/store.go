package idempotency

import (
	"context"
	"sync"
	"time"

	"github.com/chibo-dx/roster-api/internal/ports/out/idempotency"
)

// Store keeps idempotency records in a map. Used by the memory and snapshot backends;
// keys are lost on restart.
type Store struct {
	mu      sync.Mutex
	records map[idempotency.Fingerprint]idempotency.Record
}

func NewStore() *Store {
	return &Store{records: make(map[idempotency.Fingerprint]idempotency.Record)}
}

func (s *Store) Get(_ context.Context, fp idempotency.Fingerprint) (idempotency.Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[fp]
	if !ok {
		return idempotency.Record{}, false, nil
	}
	return copyRecord(rec), true, nil
}

func (s *Store) Put(_ context.Context, fp idempotency.Fingerprint, rec idempotency.Record) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[fp] = copyRecord(rec)
	return nil
}

func (s *Store) Purge(_ context.Context, before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for fp, rec := range s.records {
		if rec.CreatedAt.Before(before) {
			delete(s.records, fp)
			n++
		}
	}
	return n, nil
}

// Len reports the number of stored records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func copyRecord(rec idempotency.Record) idempotency.Record {
	rec.Body = append([]byte(nil), rec.Body...)
	return rec
}
