// Copyright (c) 2025 BVK Chaitanya

package engine

import (
	"testing"

	"github.com/bvk/zenwatch/watch"
	"github.com/shopspring/decimal"
)

func TestMatchItems(t *testing.T) {
	w := &watch.Watch{
		ID:       1,
		ChatID:   100,
		Platform: watch.Mercari,
		Query:    "pokemon",
		MaxPrice: decimal.NewFromInt(5000),
	}

	cheap := testItem(1, 3000)
	costly := testItem(2, 9000)
	known := testItem(3, 4000)
	seen := map[string]bool{known.URL: true}

	matched, unseen := matchItems(w, []*watch.Item{cheap, costly, known}, seen)
	if len(matched) != 2 {
		t.Fatalf("want 2 matched items, got %d", len(matched))
	}
	if len(unseen) != 1 || unseen[0].URL != cheap.URL {
		t.Fatalf("want only %q unseen, got %v", cheap.URL, unseen)
	}
}

func TestMatchItemsDeadline(t *testing.T) {
	soon, late, over := int64(10), int64(45), watch.Ended
	items := []*watch.Item{
		func() *watch.Item { v := testItem(1, 1000); v.MinutesLeft = &soon; return v }(),
		func() *watch.Item { v := testItem(2, 1000); v.MinutesLeft = &late; return v }(),
		func() *watch.Item { v := testItem(3, 1000); v.MinutesLeft = &over; return v }(),
		testItem(4, 1000),
	}
	w := &watch.Watch{
		ID:             1,
		ChatID:         100,
		Platform:       watch.Yahoo,
		Query:          "figure",
		MaxPrice:       decimal.NewFromInt(5000),
		MaxMinutesLeft: 30,
	}

	matched, unseen := matchItems(w, items, nil)
	if len(matched) != 1 || len(unseen) != 1 {
		t.Fatalf("want one item within the deadline, got matched=%d unseen=%d", len(matched), len(unseen))
	}
	if v := unseen[0]; v.MinutesLeft == nil || *v.MinutesLeft != soon {
		t.Fatalf("wrong item matched: %v", v)
	}
}
