// Copyright (c) 2025 BVK Chaitanya

package engine

import (
	"github.com/bvk/zenwatch/watch"
)

// matchItems evaluates fetched items against one watch. It returns the
// items that qualify and the subset of those that were not notified
// before, preserving the fetched order.
func matchItems(w *watch.Watch, items []*watch.Item, seen map[string]bool) (matched, unseen []*watch.Item) {
	for _, v := range items {
		if !w.Matches(v) {
			continue
		}
		matched = append(matched, v)
		if seen[v.URL] {
			continue
		}
		unseen = append(unseen, v)
	}
	return matched, unseen
}
