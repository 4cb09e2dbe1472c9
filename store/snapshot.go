// Copyright (c) 2025 BVK Chaitanya

package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/bvk/zenwatch/gobs"
	"github.com/bvk/zenwatch/kvutil"
	"github.com/bvk/zenwatch/watch"
	"github.com/bvkgo/kv"
)

// Snapshot holds a consistent view of all watches and their seen sets,
// read in a single transaction.
type Snapshot struct {
	Watches []*watch.Watch

	// Seen maps watch id to its notified item urls. Every watch in
	// Watches has an entry, possibly empty.
	Seen map[int64]map[string]bool

	// NumMalformed counts stored records that failed the watch validity
	// check and were excluded from Watches.
	NumMalformed int
}

// LoadSnapshot reads every watch and its seen set within one read
// transaction so a cycle never observes a half-applied update. Returns
// an error if the loaded seen sets don't line up with the loaded
// watches; a cycle must not run on inconsistent data.
func (s *Store) LoadSnapshot(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{
		Seen: make(map[int64]map[string]bool),
	}

	load := func(ctx context.Context, r kv.Reader) error {
		begin, end := kvutil.PathRange(WatchKeyspace)
		collect := func(ctx context.Context, r kv.Reader, k string, v *gobs.WatchData) error {
			w, err := watch.FromData(v)
			if err != nil {
				snap.NumMalformed++
				slog.Warn("skipping malformed watch record", "key", k, "err", err)
				return nil
			}
			snap.Watches = append(snap.Watches, w)
			return nil
		}
		if err := kvutil.Ascend(ctx, r, begin, end, collect); err != nil {
			return err
		}

		for _, w := range snap.Watches {
			seen := make(map[string]bool)
			set, err := kvutil.Get[gobs.SeenSet](ctx, r, seenKey(w.ID))
			if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			if set != nil {
				for _, u := range set.URLs {
					seen[u] = true
				}
			}
			snap.Seen[w.ID] = seen
		}

		if len(snap.Seen) != len(snap.Watches) {
			return fmt.Errorf("loaded %d seen sets for %d watches", len(snap.Seen), len(snap.Watches))
		}
		return nil
	}
	if err := kv.WithReader(ctx, s.db, load); err != nil {
		return nil, fmt.Errorf("could not load watch snapshot: %w", err)
	}
	return snap, nil
}
