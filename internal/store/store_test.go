package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/dukerupert/homebase/internal/database"
	"github.com/dukerupert/homebase/internal/model"
)

type fixture struct {
	db       *sql.DB
	familyID int64
	parent   *model.Member
	child    *model.Member
}

func setupTestDB(t *testing.T) *fixture {
	t.Helper()
	return setupTestDBAt(t, ":memory:")
}

// setupFileTestDB uses an on-disk database so writers contend for SQLite's
// lock instead of queueing on a single pooled connection.
func setupFileTestDB(t *testing.T) *fixture {
	t.Helper()
	return setupTestDBAt(t, filepath.Join(t.TempDir(), "homebase.db"))
}

func setupTestDBAt(t *testing.T, path string) *fixture {
	t.Helper()
	db, err := database.Open(path)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	fs := NewFamilyStore(db)
	fam, err := fs.CreateFamily(ctx, "Test")
	if err != nil {
		t.Fatalf("create family: %v", err)
	}
	parent, err := fs.CreateMember(ctx, fam.ID, "Mom", model.RoleParent, "#FF0000", "")
	if err != nil {
		t.Fatalf("create parent: %v", err)
	}
	child, err := fs.CreateMember(ctx, fam.ID, "Kid", model.RoleChild, "#00FF00", "")
	if err != nil {
		t.Fatalf("create child: %v", err)
	}
	return &fixture{db: db, familyID: fam.ID, parent: parent, child: child}
}
