// Copyright (c) 2025 BVK Chaitanya

package watch

// Group collapses watches into distinct query keys so that each
// marketplace request is fetched exactly once per cycle. Watches with
// unusable fields are returned separately and take no part in fetching.
func Group(ws []*Watch) (map[QueryKey][]*Watch, []*Watch) {
	groups := make(map[QueryKey][]*Watch)
	var malformed []*Watch
	for _, w := range ws {
		if err := w.Check(); err != nil {
			malformed = append(malformed, w)
			continue
		}
		k := w.QueryKey()
		groups[k] = append(groups[k], w)
	}
	return groups, malformed
}
