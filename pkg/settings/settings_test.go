package settings

import (
	"os"
	"path/filepath"
	"testing"
)

type layout struct {
	Widths map[string]int `json:"widths"`
}

func TestJSONFileStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	svc := NewJSONFileService(dir)
	store := svc.NewStore("layout", "OrderMonitor", "columns")

	in := layout{Widths: map[string]int{"symbol": 12, "price": 10}}
	if err := store.Save(in); err != nil {
		t.Fatalf("Save: %v", err)
	}

	var out layout
	if err := store.Load(&out); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if out.Widths["symbol"] != 12 || out.Widths["price"] != 10 {
		t.Fatalf("round trip mismatch: %+v", out)
	}
}

func TestLoadMissingReturnsErrNotExists(t *testing.T) {
	svc := NewJSONFileService(t.TempDir())
	store := svc.NewStore("layout", "TickMonitor", "columns")

	var out layout
	if err := store.Load(&out); err != ErrNotExists {
		t.Fatalf("expected ErrNotExists, got %v", err)
	}
}

func TestLoadCorruptFallsBackToErrNotExists(t *testing.T) {
	dir := t.TempDir()
	svc := NewJSONFileService(dir)
	store := svc.NewStore("layout", "TickMonitor", "columns")

	// Write garbage where the store expects JSON.
	path := filepath.Join(dir, "layout_TickMonitor_columns.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	var out layout
	if err := store.Load(&out); err != ErrNotExists {
		t.Fatalf("corrupt content should map to ErrNotExists, got %v", err)
	}
}

func TestKeySanitizer(t *testing.T) {
	dir := t.TempDir()
	svc := NewJSONFileService(dir)
	store := svc.NewStore("connect", "Paper Gateway/1", "fields")

	if err := store.Save(layout{}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one file, got %d", len(entries))
	}
	name := entries[0].Name()
	for _, r := range name {
		if r == '/' || r == ' ' {
			t.Fatalf("unsanitized character in file name %q", name)
		}
	}
}
