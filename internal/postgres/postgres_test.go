package postgres_test

import (
	"os"
	"testing"

	"github.com/myrjola/loadcoach/internal/postgres"
	"github.com/myrjola/loadcoach/internal/testhelpers"
)

// testDSNEnv points the tests at a disposable Postgres database.
const testDSNEnv = "LOADCOACH_TEST_POSTGRES_URL"

func TestNewPool(t *testing.T) {
	dsn := os.Getenv(testDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set", testDSNEnv)
	}
	ctx := t.Context()
	logger := testhelpers.NewLogger(testhelpers.NewWriter(t))

	pool, err := postgres.NewPool(ctx, dsn, logger)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	pool.Close()

	// Bootstrapping twice must succeed.
	pool, err = postgres.NewPool(ctx, dsn, logger)
	if err != nil {
		t.Fatalf("NewPool second run: %v", err)
	}
	defer pool.Close()

	var count int
	if err = pool.QueryRow(ctx, "SELECT count(*) FROM exercises").Scan(&count); err != nil {
		t.Fatalf("count exercises: %v", err)
	}
	if count < 28 {
		t.Errorf("got %d exercises, want at least 28", count)
	}
}
