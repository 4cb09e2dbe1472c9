// Copyright (c) 2025 BVK Chaitanya

package store

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/bvk/zenwatch/gobs"
	"github.com/bvk/zenwatch/kvutil"
	"github.com/bvkgo/kv"
)

// SeenItems returns the notified item urls for the watch. A watch with
// no notification history gets an empty set.
func (s *Store) SeenItems(ctx context.Context, id int64) (map[string]bool, error) {
	seen := make(map[string]bool)
	load := func(ctx context.Context, r kv.Reader) error {
		set, err := kvutil.Get[gobs.SeenSet](ctx, r, seenKey(id))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return err
		}
		for _, u := range set.URLs {
			seen[u] = true
		}
		return nil
	}
	if err := kv.WithReader(ctx, s.db, load); err != nil {
		return nil, fmt.Errorf("could not load seen items for watch %d: %w", id, err)
	}
	return seen, nil
}

// AddSeenItems records the given urls as already notified for the watch
// in a single write. Returns the number of urls that were not in the set
// before. When the history limit is configured, oldest entries are
// evicted to stay within the limit.
func (s *Store) AddSeenItems(ctx context.Context, id int64, urls []string) (int, error) {
	if len(urls) == 0 {
		return 0, nil
	}

	nadded := 0
	add := func(ctx context.Context, rw kv.ReadWriter) error {
		nadded = 0
		set, err := kvutil.Get[gobs.SeenSet](ctx, rw, seenKey(id))
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return err
			}
			set = new(gobs.SeenSet)
		}

		known := make(map[string]bool, len(set.URLs))
		for _, u := range set.URLs {
			known[u] = true
		}
		for _, u := range urls {
			if len(u) == 0 || known[u] {
				continue
			}
			known[u] = true
			set.URLs = append(set.URLs, u)
			nadded++
		}
		if nadded == 0 {
			return nil
		}

		if s.historyLimit > 0 && len(set.URLs) > s.historyLimit {
			set.URLs = set.URLs[len(set.URLs)-s.historyLimit:]
		}
		return kvutil.Set(ctx, rw, seenKey(id), set)
	}
	if err := kv.WithReadWriter(ctx, s.db, add); err != nil {
		return 0, fmt.Errorf("could not add seen items for watch %d: %w", id, err)
	}
	return nadded, nil
}
