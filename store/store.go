// Copyright (c) 2025 BVK Chaitanya

// Package store persists watches and their notification history in a
// key-value database.
//
// Watches are stored under /watches with the already notified item urls
// for each watch under /seen. A per-chat index under /subscribers maps
// notification destinations to their watch ids. All updates that touch
// multiple keys run in a single transaction, so the indexes can never
// drift from the watch records.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/bvk/zenwatch/gobs"
	"github.com/bvk/zenwatch/kvutil"
	"github.com/bvk/zenwatch/watch"
	"github.com/bvkgo/kv"
)

const (
	WatchKeyspace      = "/watches"
	SeenKeyspace       = "/seen"
	SubscriberKeyspace = "/subscribers"

	nextIDKey = "/meta/next-watch-id"
)

func watchKey(id int64) string {
	return fmt.Sprintf("%s/%016d", WatchKeyspace, id)
}

func seenKey(id int64) string {
	return fmt.Sprintf("%s/%016d", SeenKeyspace, id)
}

func subscriberKey(chatID int64) string {
	return fmt.Sprintf("%s/%d", SubscriberKeyspace, chatID)
}

type Store struct {
	db kv.Database

	// historyLimit caps the number of notified item urls remembered per
	// watch. Zero means unlimited.
	historyLimit int
}

func New(db kv.Database, historyLimit int) (*Store, error) {
	if db == nil {
		return nil, os.ErrInvalid
	}
	if historyLimit < 0 {
		return nil, fmt.Errorf("history limit cannot be negative")
	}
	s := &Store{
		db:           db,
		historyLimit: historyLimit,
	}
	return s, nil
}

// CreateWatch assigns the next watch id and saves the watch along with
// its subscriber index entry. Returns the assigned id.
func (s *Store) CreateWatch(ctx context.Context, w *watch.Watch) (int64, error) {
	if err := w.Check(); err != nil {
		return 0, err
	}

	var id int64
	create := func(ctx context.Context, rw kv.ReadWriter) error {
		next, err := kvutil.Get[int64](ctx, rw, nextIDKey)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return err
			}
			first := int64(1)
			next = &first
		}
		id = *next

		n := id + 1
		if err := kvutil.Set(ctx, rw, nextIDKey, &n); err != nil {
			return err
		}

		data := w.Data()
		data.ID = id
		if err := kvutil.Set(ctx, rw, watchKey(id), data); err != nil {
			return err
		}

		sub, err := kvutil.Get[gobs.SubscriberData](ctx, rw, subscriberKey(w.ChatID))
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return err
			}
			sub = &gobs.SubscriberData{ChatID: w.ChatID}
		}
		sub.WatchIDs = append(sub.WatchIDs, id)
		return kvutil.Set(ctx, rw, subscriberKey(w.ChatID), sub)
	}
	if err := kv.WithReadWriter(ctx, s.db, create); err != nil {
		return 0, fmt.Errorf("could not create watch: %w", err)
	}

	w.ID = id
	return id, nil
}

// DeleteWatch removes the watch, its seen set and its subscriber index
// entry. Returns os.ErrNotExist if the watch doesn't exist.
func (s *Store) DeleteWatch(ctx context.Context, id int64) error {
	remove := func(ctx context.Context, rw kv.ReadWriter) error {
		data, err := kvutil.Get[gobs.WatchData](ctx, rw, watchKey(id))
		if err != nil {
			return err
		}
		if err := rw.Delete(ctx, watchKey(id)); err != nil {
			return err
		}
		if err := rw.Delete(ctx, seenKey(id)); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return err
			}
		}

		sub, err := kvutil.Get[gobs.SubscriberData](ctx, rw, subscriberKey(data.ChatID))
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return err
			}
			return nil
		}
		sub.WatchIDs = slices.DeleteFunc(sub.WatchIDs, func(v int64) bool {
			return v == id
		})
		if len(sub.WatchIDs) == 0 {
			return rw.Delete(ctx, subscriberKey(data.ChatID))
		}
		return kvutil.Set(ctx, rw, subscriberKey(data.ChatID), sub)
	}
	if err := kv.WithReadWriter(ctx, s.db, remove); err != nil {
		return fmt.Errorf("could not delete watch %d: %w", id, err)
	}
	return nil
}

func (s *Store) GetWatch(ctx context.Context, id int64) (*watch.Watch, error) {
	data, err := kvutil.GetDB[gobs.WatchData](ctx, s.db, watchKey(id))
	if err != nil {
		return nil, err
	}
	return watch.FromData(data)
}

// ListWatches returns all valid watches. Watches that fail their
// validity check are counted but not returned.
func (s *Store) ListWatches(ctx context.Context) ([]*watch.Watch, int, error) {
	var ws []*watch.Watch
	nbad := 0

	begin, end := kvutil.PathRange(WatchKeyspace)
	collect := func(ctx context.Context, r kv.Reader, k string, v *gobs.WatchData) error {
		w, err := watch.FromData(v)
		if err != nil {
			nbad++
			return nil
		}
		ws = append(ws, w)
		return nil
	}
	if err := kvutil.AscendDB(ctx, s.db, begin, end, collect); err != nil {
		return nil, 0, fmt.Errorf("could not list watches: %w", err)
	}
	return ws, nbad, nil
}

// ListWatchesFor returns the watches subscribed by the given chat.
func (s *Store) ListWatchesFor(ctx context.Context, chatID int64) ([]*watch.Watch, error) {
	var ws []*watch.Watch
	list := func(ctx context.Context, r kv.Reader) error {
		sub, err := kvutil.Get[gobs.SubscriberData](ctx, r, subscriberKey(chatID))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return err
		}
		for _, id := range sub.WatchIDs {
			data, err := kvutil.Get[gobs.WatchData](ctx, r, watchKey(id))
			if err != nil {
				return err
			}
			w, err := watch.FromData(data)
			if err != nil {
				continue
			}
			ws = append(ws, w)
		}
		return nil
	}
	if err := kv.WithReader(ctx, s.db, list); err != nil {
		return nil, fmt.Errorf("could not list watches for chat %d: %w", chatID, err)
	}
	return ws, nil
}

// Subscribers returns all chat ids with at least one watch.
func (s *Store) Subscribers(ctx context.Context) ([]int64, error) {
	var chats []int64
	begin, end := kvutil.PathRange(SubscriberKeyspace)
	collect := func(ctx context.Context, r kv.Reader, k string, v *gobs.SubscriberData) error {
		chats = append(chats, v.ChatID)
		return nil
	}
	if err := kvutil.AscendDB(ctx, s.db, begin, end, collect); err != nil {
		return nil, fmt.Errorf("could not list subscribers: %w", err)
	}
	return chats, nil
}
