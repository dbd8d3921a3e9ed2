package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/substrat-dev/ragd/db"
	"github.com/substrat-dev/ragd/internal/store"
)

// TestDB is a throwaway pgvector-enabled Postgres with migrations
// applied.
type TestDB struct {
	Pool    *pgxpool.Pool
	ConnStr string

	container *postgres.PostgresContainer
}

// SetupTestDB starts a pgvector container, runs migrations, and returns
// a connected pool. The container is torn down via t.Cleanup. Skips
// under -short or when Docker is unavailable.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()

	container, err := postgres.Run(ctx, "pgvector/pgvector:pg16",
		postgres.WithDatabase("ragd_test"),
		postgres.WithUsername("ragd"),
		postgres.WithPassword("ragd"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Skipf("could not start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}

	if err := db.Migrate(connStr); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	pool, err := store.NewPool(ctx, connStr)
	if err != nil {
		t.Fatalf("connect pool: %v", err)
	}
	t.Cleanup(pool.Close)

	return &TestDB{Pool: pool, ConnStr: connStr, container: container}
}

// TruncateAll clears every table between test cases.
func (d *TestDB) TruncateAll(t *testing.T) {
	t.Helper()
	_, err := d.Pool.Exec(context.Background(),
		"TRUNCATE chunks, entities, relations, documents")
	if err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}
