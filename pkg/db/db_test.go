package db

import (
	"path/filepath"
	"testing"
	"time"
)

func TestInit_CreatesSchema(t *testing.T) {
	d, err := Init(filepath.Join(t.TempDir(), "nested", "dir", "test.db"))
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer d.Close()

	for _, table := range []string{"content_history", "state"} {
		var name string
		err := d.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestInit_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	d1, err := Init(path)
	if err != nil {
		t.Fatal(err)
	}
	d1.Close()

	d2, err := Init(path)
	if err != nil {
		t.Fatalf("second Init failed: %v", err)
	}
	d2.Close()
}

func TestPruneContent(t *testing.T) {
	d, err := Init(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	old := time.Now().Add(-48 * time.Hour).UTC().Format("2006-01-02 15:04:05")
	if _, err := d.Exec(
		`INSERT INTO content_history (id, text, created_at) VALUES ('old', 'X', ?)`, old); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Exec(
		`INSERT INTO content_history (id, text) VALUES ('fresh', 'Y')`); err != nil {
		t.Fatal(err)
	}

	if err := d.PruneContent(24 * time.Hour); err != nil {
		t.Fatalf("PruneContent failed: %v", err)
	}

	var count int
	if err := d.QueryRow(`SELECT COUNT(*) FROM content_history`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("count = %d, want only the fresh row", count)
	}
	var id string
	if err := d.QueryRow(`SELECT id FROM content_history`).Scan(&id); err != nil || id != "fresh" {
		t.Errorf("surviving row = %q (%v)", id, err)
	}
}
