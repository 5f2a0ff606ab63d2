package bootstrap

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	memclock "github.com/chibo-dx/roster-api/internal/adapters/memory/clock"
	memidempotency "github.com/chibo-dx/roster-api/internal/adapters/memory/idempotency"
	"github.com/chibo-dx/roster-api/internal/ports/out/idempotency"
)

func TestPurgeIdempotencyKeys(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	clk := memclock.NewManualClock(now)
	store := memidempotency.NewStore()
	fp := func(hash string) idempotency.Fingerprint {
		return idempotency.Fingerprint{Key: "k", Subject: "sub-member", Method: "POST", Route: "/members/me/edit-requests", BodyHash: hash}
	}
	_ = store.Put(context.Background(), fp("old"), idempotency.Record{StatusCode: 201, CreatedAt: now.Add(-2 * time.Hour)})
	_ = store.Put(context.Background(), fp("new"), idempotency.Record{StatusCode: 201, CreatedAt: now.Add(-time.Minute)})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		PurgeIdempotencyKeys(ctx, store, time.Hour, 5*time.Millisecond, clk, zerolog.Nop())
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for store.Len() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("records=%d, want the expired one purged", store.Len())
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	if _, ok, _ := store.Get(context.Background(), fp("new")); !ok {
		t.Fatalf("fresh record was purged")
	}
}

func TestPurgeIdempotencyKeys_DisabledReturns(t *testing.T) {
	t.Parallel()

	done := make(chan struct{})
	go func() {
		PurgeIdempotencyKeys(context.Background(), memidempotency.NewStore(), 0, time.Millisecond, memclock.NewManualClock(time.Now()), zerolog.Nop())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("zero TTL should return immediately")
	}
}
