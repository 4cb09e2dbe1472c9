// Copyright (c) 2025 BVK Chaitanya

// Package source defines the marketplace listing fetch interface.
package source

import (
	"context"

	"github.com/bvk/zenwatch/watch"
)

type Source interface {
	// Fetch returns current listings for a search query on a platform.
	// An empty result with a nil error means the query matched nothing;
	// a non-nil error marks the query failed for this attempt. Fetch
	// never returns a nil slice with a nil error.
	Fetch(ctx context.Context, platform, query, sortOrder string) ([]*watch.Item, error)
}
