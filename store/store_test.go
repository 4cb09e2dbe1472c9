// Copyright (c) 2025 BVK Chaitanya

package store

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/bvk/zenwatch/gobs"
	"github.com/bvk/zenwatch/kvutil"
	"github.com/bvk/zenwatch/watch"
	"github.com/bvkgo/kv/kvmemdb"
	"github.com/shopspring/decimal"
)

func newTestStore(t *testing.T, historyLimit int) *Store {
	t.Helper()
	s, err := New(kvmemdb.New(), historyLimit)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func testWatch(chatID int64, query string) *watch.Watch {
	return &watch.Watch{
		ChatID:   chatID,
		Platform: watch.Mercari,
		Query:    query,
		MaxPrice: decimal.NewFromInt(5000),
	}
}

func TestCreateWatchAssignsIDs(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 0)

	id1, err := s.CreateWatch(ctx, testWatch(100, "first"))
	if err != nil {
		t.Fatal(err)
	}
	id2, err := s.CreateWatch(ctx, testWatch(100, "second"))
	if err != nil {
		t.Fatal(err)
	}
	if id1 == id2 {
		t.Fatalf("watch ids must be unique, got %d twice", id1)
	}
	if id2 <= id1 {
		t.Errorf("watch ids must increase, got %d then %d", id1, id2)
	}

	w, err := s.GetWatch(ctx, id1)
	if err != nil {
		t.Fatal(err)
	}
	if w.Query != "first" || w.ChatID != 100 {
		t.Errorf("unexpected watch data: %+v", w)
	}
}

func TestCreateWatchRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 0)

	w := testWatch(100, "query")
	w.Platform = "ebay"
	if _, err := s.CreateWatch(ctx, w); err == nil {
		t.Fatal("want error for invalid watch, got nil")
	}
}

func TestDeleteWatch(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 0)

	id, err := s.CreateWatch(ctx, testWatch(100, "query"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddSeenItems(ctx, id, []string{"https://zenmarket.jp/a"}); err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteWatch(ctx, id); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetWatch(ctx, id); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("want os.ErrNotExist after delete, got %v", err)
	}
	seen, err := s.SeenItems(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if len(seen) != 0 {
		t.Errorf("want empty seen set after delete, got %v", seen)
	}
	ws, err := s.ListWatchesFor(ctx, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(ws) != 0 {
		t.Errorf("want no watches for chat after delete, got %d", len(ws))
	}

	if err := s.DeleteWatch(ctx, id); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("want os.ErrNotExist for double delete, got %v", err)
	}
}

func TestListWatchesFor(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 0)

	if _, err := s.CreateWatch(ctx, testWatch(100, "a")); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateWatch(ctx, testWatch(100, "b")); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateWatch(ctx, testWatch(200, "c")); err != nil {
		t.Fatal(err)
	}

	ws, err := s.ListWatchesFor(ctx, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(ws) != 2 {
		t.Errorf("want 2 watches for chat 100, got %d", len(ws))
	}

	chats, err := s.Subscribers(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(chats) != 2 {
		t.Errorf("want 2 subscribers, got %v", chats)
	}
}

func TestAddSeenItems(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 0)

	id, err := s.CreateWatch(ctx, testWatch(100, "query"))
	if err != nil {
		t.Fatal(err)
	}

	n, err := s.AddSeenItems(ctx, id, []string{"https://z/a", "https://z/b"})
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("want 2 added, got %d", n)
	}

	// Duplicates don't count.
	n, err = s.AddSeenItems(ctx, id, []string{"https://z/b", "https://z/c"})
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("want 1 added, got %d", n)
	}

	seen, err := s.SeenItems(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	for _, u := range []string{"https://z/a", "https://z/b", "https://z/c"} {
		if !seen[u] {
			t.Errorf("want %q in seen set", u)
		}
	}
}

func TestSeenHistoryLimit(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 2)

	id, err := s.CreateWatch(ctx, testWatch(100, "query"))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.AddSeenItems(ctx, id, []string{"https://z/a", "https://z/b", "https://z/c"}); err != nil {
		t.Fatal(err)
	}
	seen, err := s.SeenItems(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if len(seen) != 2 {
		t.Errorf("want seen set capped at 2, got %d", len(seen))
	}
	if !seen["https://z/c"] {
		t.Errorf("want newest url retained after eviction")
	}
}

func TestLoadSnapshot(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 0)

	id1, err := s.CreateWatch(ctx, testWatch(100, "a"))
	if err != nil {
		t.Fatal(err)
	}
	id2, err := s.CreateWatch(ctx, testWatch(200, "b"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddSeenItems(ctx, id1, []string{"https://z/a"}); err != nil {
		t.Fatal(err)
	}

	snap, err := s.LoadSnapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Watches) != 2 {
		t.Fatalf("want 2 watches in snapshot, got %d", len(snap.Watches))
	}
	if !snap.Seen[id1]["https://z/a"] {
		t.Errorf("want seen url for watch %d in snapshot", id1)
	}
	if len(snap.Seen[id2]) != 0 {
		t.Errorf("want empty seen set for watch %d, got %v", id2, snap.Seen[id2])
	}
	if snap.NumMalformed != 0 {
		t.Errorf("want no malformed records, got %d", snap.NumMalformed)
	}
}

func TestLoadSnapshotMalformed(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 0)

	id, err := s.CreateWatch(ctx, testWatch(100, "a"))
	if err != nil {
		t.Fatal(err)
	}

	// A record with an empty query fails the watch validity check.
	bad := &gobs.WatchData{
		ID:       999,
		ChatID:   200,
		Platform: watch.Mercari,
		MaxPrice: decimal.NewFromInt(100),
	}
	if err := kvutil.SetDB(ctx, s.db, watchKey(bad.ID), bad); err != nil {
		t.Fatal(err)
	}

	snap, err := s.LoadSnapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Watches) != 1 || snap.Watches[0].ID != id {
		t.Fatalf("want only watch %d in snapshot, got %d watches", id, len(snap.Watches))
	}
	if snap.NumMalformed != 1 {
		t.Errorf("want 1 malformed record, got %d", snap.NumMalformed)
	}
}
