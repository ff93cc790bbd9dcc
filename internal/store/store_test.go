package store

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "game_stats.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestInsertAndAll(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	older := Row{
		ReplayFile: "/replays/a.aoe2record",
		Map:        `{"name": "Arabia", "size": "Tiny"}`,
		Players:    `[{"name": "Alice"}]`,
		Timestamp:  "2024-01-01 10:00:00",
	}
	newer := Row{
		ReplayFile: "/replays/b.aoe2record",
		Map:        "Black Forest",
		Players:    `[{"name": "Bob"}]`,
		Timestamp:  "2024-01-02 10:00:00",
	}
	for _, r := range []Row{older, newer} {
		inserted, err := s.Insert(ctx, r)
		if err != nil {
			t.Fatalf("Insert: %v", err)
		}
		if !inserted {
			t.Fatalf("Insert(%s) reported duplicate", r.ReplayFile)
		}
	}

	rows, err := s.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].ReplayFile != newer.ReplayFile {
		t.Errorf("first row = %s, want newest first", rows[0].ReplayFile)
	}
	if rows[1].Map != older.Map {
		t.Errorf("map text = %q, want stored JSON unchanged", rows[1].Map)
	}
}

func TestInsertDeduplicatesByReplayFile(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	r := Row{ReplayFile: "/replays/a.aoe2record", Timestamp: "2024-01-01 10:00:00"}
	if _, err := s.Insert(ctx, r); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	inserted, err := s.Insert(ctx, r)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if inserted {
		t.Error("second insert of the same replay should be a no-op")
	}

	has, err := s.Has(ctx, r.ReplayFile)
	if err != nil {
		t.Fatalf("Has: %v", err)
	}
	if !has {
		t.Error("Has = false for stored replay")
	}
	has, err = s.Has(ctx, "/replays/other.aoe2record")
	if err != nil {
		t.Fatalf("Has: %v", err)
	}
	if has {
		t.Error("Has = true for unknown replay")
	}
}
