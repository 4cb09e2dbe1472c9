// Copyright (c) 2025 BVK Chaitanya

package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/bvk/zenwatch/watch"
)

type fetchResult struct {
	items []*watch.Item
	err   error
}

// fetchAll runs every deduplicated query concurrently. All fetches share
// one deadline; when the budget expires before every fetch completes, the
// whole batch is discarded and the cycle must be aborted. Individual
// fetch failures are kept in the result map so that only the watches
// backed by the failed query skip this cycle.
func (e *Engine) fetchAll(ctx context.Context, keys []watch.QueryKey) (map[watch.QueryKey]*fetchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, e.opts.FetchBudget)
	defer cancel()

	results := make([]*fetchResult, len(keys))

	var wg sync.WaitGroup
	for i, key := range keys {
		wg.Add(1)
		go func(i int, key watch.QueryKey) {
			defer wg.Done()
			items, err := e.source.Fetch(ctx, key.Platform, key.Query, key.SortOrder)
			results[i] = &fetchResult{items: items, err: err}
		}(i, key)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("could not fetch %d queries within %v: %w", len(keys), e.opts.FetchBudget, err)
	}

	resultMap := make(map[watch.QueryKey]*fetchResult, len(keys))
	for i, key := range keys {
		resultMap[key] = results[i]
	}
	return resultMap, nil
}
