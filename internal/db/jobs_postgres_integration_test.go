//go:build integration

package db

import (
	"context"
	"os"
	"testing"

	"github.com/jonathan/resume-tailor/internal/jobstore/jobstoretest"
)

func getTestDB(t *testing.T) *DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	db, err := Connect(context.Background(), dsn, 0)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	return db
}

func TestIntegration_PostgresJobStore_Contract(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	ctx := context.Background()

	store, err := NewPostgresJobStore(ctx, db)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	_, _ = db.pool.Exec(ctx, "DELETE FROM tailoring_jobs")

	jobstoretest.Run(t, store)
}
