package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "state", "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestAddAndRecent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	for i, name := range []string{"first.mkv", "second.mkv", "third.mkv"} {
		_, err := store.Add(ctx, Entry{
			RunID:        "run-1",
			Kind:         "movie",
			OriginalName: name,
			ArchivedName: "Movie (2000).mkv",
			Destination:  "/library/movies/2000/Movie (2000)/Movie (2000).mkv",
			ExternalID:   int64(i + 1),
			ArchivedAt:   base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	recent, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(recent))
	}
	if recent[0].OriginalName != "third.mkv" || recent[1].OriginalName != "second.mkv" {
		t.Fatalf("unexpected order: %q, %q", recent[0].OriginalName, recent[1].OriginalName)
	}
	if !recent[0].ArchivedAt.Equal(base.Add(2 * time.Minute)) {
		t.Fatalf("unexpected timestamp %v", recent[0].ArchivedAt)
	}
	if recent[0].ExternalID != 3 {
		t.Fatalf("unexpected external id %d", recent[0].ExternalID)
	}
}

func TestForRunAndOverwriteFlag(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if _, err := store.Add(ctx, Entry{RunID: "a", Kind: "episode", OriginalName: "x", ArchivedName: "y", Destination: "/z", Overwrote: true}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Add(ctx, Entry{RunID: "b", Kind: "episode", OriginalName: "x2", ArchivedName: "y2", Destination: "/z2"}); err != nil {
		t.Fatal(err)
	}

	entries, err := store.ForRun(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || !entries[0].Overwrote || entries[0].ExternalID != 0 {
		t.Fatalf("unexpected run entries %#v", entries)
	}
}

func TestAddRequiresRunID(t *testing.T) {
	store := openTestStore(t)
	if _, err := store.Add(context.Background(), Entry{Kind: "movie"}); err == nil {
		t.Fatal("expected error without run id")
	}
}

func TestReopenKeepsSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Add(context.Background(), Entry{RunID: "r", Kind: "movie", OriginalName: "o", ArchivedName: "a", Destination: "/d"}); err != nil {
		t.Fatal(err)
	}
	_ = store.Close()

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	entries, err := reopened.Recent(context.Background(), 10)
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected persisted entry, got %v %v", entries, err)
	}
}

func TestSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatal(err)
	}
	_ = store.Close()

	if _, err := Open(path); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}
