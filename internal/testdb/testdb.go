// Package testdb opens an isolated in-memory database for tests.
package testdb

import (
	"context"
	"testing"

	"github.com/Skotchmaster/job_tracker/internal/repo"
	"github.com/Skotchmaster/job_tracker/pkg/db"
)

func New(t testing.TB) *repo.GormRepo {
	t.Helper()

	gdb, err := db.Open(context.Background(), "sqlite://:memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	r := repo.New(gdb)
	if err := r.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return r
}
