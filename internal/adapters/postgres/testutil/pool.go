// Package testutil opens a migrated Postgres pool for adapter tests.
package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chibo-dx/roster-api/internal/adapters/postgres"
)

// DatabaseURLEnv names the variable pointing tests at a disposable database.
const DatabaseURLEnv = "TEST_DATABASE_URL"

// OpenMigratedPool skips the test unless TEST_DATABASE_URL is set.
func OpenMigratedPool(t testing.TB) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv(DatabaseURLEnv)
	if url == "" {
		t.Skipf("%s not set; skipping postgres test", DatabaseURLEnv)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, url, postgres.PoolOptions{MaxConns: 4})
	if err != nil {
		t.Fatalf("open pool: %v", err)
	}
	t.Cleanup(pool.Close)
	if _, err := postgres.Migrate(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return pool
}
