package database

import "testing"

func TestOpenMemory(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	v, err := Version(db)
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if v != 1 {
		t.Errorf("version = %d, want 1", v)
	}

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM lists`).Scan(&n); err != nil {
		t.Fatalf("query lists: %v", err)
	}
	if n != 0 {
		t.Errorf("lists = %d, want 0", n)
	}
}

func TestMigrateIdempotent(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if err := Migrate(db); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}
