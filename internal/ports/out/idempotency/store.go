package idempotency

import (
	"context"
	"time"

	"github.com/chibo-dx/roster-api/internal/domain"
)

// Key is the value of the Idempotency-Key request header.
type Key string

// Fingerprint addresses one stored record. Records are scoped to the caller's subject and
// the route template, so the same key sent by two members never collides.
//
// An empty BodyHash addresses the key's first-seen record, whose Body holds the hash of
// the payload that claimed the key. A non-empty BodyHash addresses the stored response.
type Fingerprint struct {
	Key      Key
	Subject  domain.SubjectID
	Method   string
	Route    string
	BodyHash string
}

// Record is a stored response, replayed verbatim on retry.
type Record struct {
	StatusCode  int
	ContentType string
	Body        []byte
	CreatedAt   time.Time
}

type Store interface {
	Get(ctx context.Context, fp Fingerprint) (Record, bool, error)
	// Put overwrites any record stored under fp.
	Put(ctx context.Context, fp Fingerprint, rec Record) error
	// Purge drops records created before the cutoff and reports how many went.
	Purge(ctx context.Context, before time.Time) (int, error)
}
