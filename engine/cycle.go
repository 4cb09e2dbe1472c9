// Copyright (c) 2025 BVK Chaitanya

package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/bvk/zenwatch/watch"
)

// RunCycle executes one reconcile cycle. Cycles aborted before the
// evaluation step make no notification and no durable state change.
// The returned summary is also published on the cycle results topic.
func (e *Engine) RunCycle(ctx context.Context) (*CycleResult, error) {
	e.cycleLock.Lock()
	defer e.cycleLock.Unlock()

	r := &CycleResult{
		StartTime: time.Now(),
	}
	abort := func(err error) (*CycleResult, error) {
		r.Aborted = true
		r.Err = err
		r.EndTime = time.Now()
		e.resultTopic.Send(r)
		return r, err
	}

	snap, err := e.store.LoadSnapshot(ctx)
	if err != nil {
		return abort(err)
	}
	r.NumWatches = len(snap.Watches)
	r.NumMalformed = snap.NumMalformed

	// Snapshot watches already passed their validity check; malformed
	// records were counted and dropped at load time.
	groups, _ := watch.Group(snap.Watches)
	r.NumQueries = len(groups)
	if len(groups) == 0 {
		r.EndTime = time.Now()
		e.resultTopic.Send(r)
		return r, nil
	}

	var keys []watch.QueryKey
	for key := range groups {
		keys = append(keys, key)
	}
	resultMap, err := e.fetchAll(ctx, keys)
	if err != nil {
		return abort(err)
	}

	var removals []int64
	for key, ws := range groups {
		fr := resultMap[key]
		if fr.err != nil {
			// Watches backed by this query skip the cycle. Their seen sets are
			// untouched, so nothing is lost or duplicated.
			r.NumFailedQueries++
			slog.Warn("query fetch failed; skipping its watches this cycle", "query", key, "watches", len(ws), "err", fr.err)
			continue
		}

		for _, w := range ws {
			out := e.notifyWatch(ctx, w, fr.items, snap.Seen[w.ID])
			r.NumMatches += out.numMatches
			r.NumNotified += len(out.delivered)

			if out.unreachable {
				// Delivered urls for a doomed watch are dropped with it.
				removals = append(removals, w.ID)
				continue
			}
			if len(out.delivered) > 0 {
				if _, err := e.store.AddSeenItems(ctx, w.ID, out.delivered); err != nil {
					slog.Error("could not record seen items; items may notify again", "watch", w.ID, "err", err)
				}
			}
			if err := ctx.Err(); err != nil {
				return abort(err)
			}
		}
	}

	for _, id := range removals {
		if err := e.store.DeleteWatch(ctx, id); err != nil {
			slog.Error("could not remove watch of unreachable chat (will retry next cycle)", "watch", id, "err", err)
			continue
		}
		r.RemovedWatchIDs = append(r.RemovedWatchIDs, id)
	}

	r.EndTime = time.Now()
	e.resultTopic.Send(r)
	return r, nil
}
