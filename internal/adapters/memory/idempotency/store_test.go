package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/chibo-dx/roster-api/internal/ports/out/idempotency"
)

func submitFP(hash string) idempotency.Fingerprint {
	return idempotency.Fingerprint{
		Key:      "retry-1",
		Subject:  "sub-member",
		Method:   "POST",
		Route:    "/members/me/edit-requests",
		BodyHash: hash,
	}
}

func TestStore_BodiesAreCopied(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := NewStore()
	body := []byte(`{"editRequest":{"requestId":"r-1"}}`)
	if err := s.Put(ctx, submitFP("h1"), idempotency.Record{StatusCode: 201, ContentType: "application/json", Body: body}); err != nil {
		t.Fatalf("Put() err=%v", err)
	}
	body[0] = 'X'

	got, ok, err := s.Get(ctx, submitFP("h1"))
	if err != nil || !ok {
		t.Fatalf("Get() ok=%v err=%v", ok, err)
	}
	if string(got.Body) != `{"editRequest":{"requestId":"r-1"}}` {
		t.Fatalf("stored body changed by caller: %s", got.Body)
	}
	if got.CreatedAt.IsZero() {
		t.Fatalf("CreatedAt not stamped")
	}

	got.Body[0] = 'Y'
	again, _, _ := s.Get(ctx, submitFP("h1"))
	if again.Body[0] != '{' {
		t.Fatalf("stored body changed through Get result: %s", again.Body)
	}
}

func TestStore_PurgeDropsOnlyOldRecords(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := NewStore()
	cutoff := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	_ = s.Put(ctx, submitFP(""), idempotency.Record{Body: []byte("h-old"), CreatedAt: cutoff.Add(-time.Minute)})
	_ = s.Put(ctx, submitFP("h-old"), idempotency.Record{StatusCode: 201, CreatedAt: cutoff.Add(-time.Minute)})
	_ = s.Put(ctx, submitFP("h-new"), idempotency.Record{StatusCode: 201, CreatedAt: cutoff})

	n, err := s.Purge(ctx, cutoff)
	if err != nil {
		t.Fatalf("Purge() err=%v", err)
	}
	if n != 2 || s.Len() != 1 {
		t.Fatalf("Purge()=%d, remaining=%d; want 2 purged and 1 left", n, s.Len())
	}
	if _, ok, _ := s.Get(ctx, submitFP("h-new")); !ok {
		t.Fatalf("record at the cutoff was purged")
	}
}
