package repo

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/supplylink/comms-backend/internal/domain"
)

func TestOpenSQLite_And_AutoMigrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "comms.db")

	db, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}

	// A write against a migrated table proves the schema landed.
	ctx := context.Background()
	if err := SeedUser(ctx, db, &domain.User{ID: "u1", Name: "n", Email: "e@example.com", Role: "supplier"}); err != nil {
		t.Fatalf("seed after migrate: %v", err)
	}
	if _, err := GetUser(ctx, db, "u1"); err != nil {
		t.Fatalf("read after migrate: %v", err)
	}
}

func TestOpenSQLite_MissingParentDir(t *testing.T) {
	if _, err := OpenSQLite(filepath.Join(t.TempDir(), "nope", "comms.db")); err == nil {
		t.Fatal("expected error for missing parent directory")
	}
}
