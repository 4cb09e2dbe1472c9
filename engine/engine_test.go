// Copyright (c) 2025 BVK Chaitanya

package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bvk/zenwatch/notify"
	"github.com/bvk/zenwatch/store"
	"github.com/bvk/zenwatch/watch"
	"github.com/bvkgo/kv/kvmemdb"
	"github.com/shopspring/decimal"
)

type fakeSource struct {
	mu sync.Mutex

	delay time.Duration

	items map[watch.QueryKey][]*watch.Item
	errs  map[watch.QueryKey]error

	calls map[watch.QueryKey]int
}

func (s *fakeSource) Fetch(ctx context.Context, platform, query, sortOrder string) ([]*watch.Item, error) {
	if s.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.delay):
		}
	}

	key := watch.QueryKey{Platform: platform, Query: query, SortOrder: sortOrder}
	s.mu.Lock()
	if s.calls == nil {
		s.calls = make(map[watch.QueryKey]int)
	}
	s.calls[key]++
	s.mu.Unlock()

	if err := s.errs[key]; err != nil {
		return nil, err
	}
	return s.items[key], nil
}

type sentMessage struct {
	chatID int64
	kind   string
	text   string
}

type fakeSender struct {
	mu sync.Mutex

	richErr  error
	textErr  error
	chatErrs map[int64]error

	sent []sentMessage
}

func (s *fakeSender) record(chatID int64, kind, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentMessage{chatID: chatID, kind: kind, text: text})
}

func (s *fakeSender) count(chatID int64, kind string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, m := range s.sent {
		if m.chatID == chatID && (kind == "" || m.kind == kind) {
			n++
		}
	}
	return n
}

func (s *fakeSender) SendRich(ctx context.Context, chatID int64, imageURL, caption string) error {
	if err := s.chatErrs[chatID]; err != nil {
		return err
	}
	if s.richErr != nil {
		return s.richErr
	}
	s.record(chatID, "rich", caption)
	return nil
}

func (s *fakeSender) SendText(ctx context.Context, chatID int64, text string) error {
	if err := s.chatErrs[chatID]; err != nil {
		return err
	}
	if s.textErr != nil {
		return s.textErr
	}
	s.record(chatID, "text", text)
	return nil
}

func (s *fakeSender) SendPlain(ctx context.Context, chatID int64, text string) error {
	if err := s.chatErrs[chatID]; err != nil {
		return err
	}
	s.record(chatID, "plain", text)
	return nil
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(kvmemdb.New(), 100)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func newTestEngine(t *testing.T, st *store.Store, src *fakeSource, snd *fakeSender) *Engine {
	t.Helper()
	opts := &Options{
		SendDelay:   time.Millisecond,
		FetchBudget: 10 * time.Second,
	}
	e, err := New(st, src, snd, opts)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

func addTestWatch(t *testing.T, st *store.Store, w *watch.Watch) *watch.Watch {
	t.Helper()
	if _, err := st.CreateWatch(context.Background(), w); err != nil {
		t.Fatal(err)
	}
	return w
}

func testItem(i int, price int64) *watch.Item {
	return &watch.Item{
		Name:     fmt.Sprintf("item-%d", i),
		Price:    decimal.NewFromInt(price),
		URL:      fmt.Sprintf("https://zenmarket.jp/en/item/%d", i),
		ImageURL: fmt.Sprintf("https://img.zenmarket.jp/%d.jpg", i),
	}
}

func TestCycleDedupAndSeen(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	// Two watches share one query; a third has its own.
	key := watch.QueryKey{Platform: watch.Mercari, Query: "pokemon", SortOrder: watch.DefaultSortOrder(watch.Mercari)}
	addTestWatch(t, st, &watch.Watch{ChatID: 101, Platform: key.Platform, Query: key.Query, SortOrder: key.SortOrder, MaxPrice: decimal.NewFromInt(5000)})
	addTestWatch(t, st, &watch.Watch{ChatID: 102, Platform: key.Platform, Query: key.Query, SortOrder: key.SortOrder, MaxPrice: decimal.NewFromInt(1000)})
	other := watch.QueryKey{Platform: watch.Rakuten, Query: "figure", SortOrder: ""}
	addTestWatch(t, st, &watch.Watch{ChatID: 103, Platform: other.Platform, Query: other.Query, MaxPrice: decimal.NewFromInt(9000)})

	src := &fakeSource{
		items: map[watch.QueryKey][]*watch.Item{
			key:   {testItem(1, 800), testItem(2, 4000)},
			other: {testItem(3, 100)},
		},
	}
	snd := &fakeSender{}
	e := newTestEngine(t, st, src, snd)

	r, err := e.RunCycle(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if r.Aborted {
		t.Fatal("cycle was aborted")
	}
	if r.NumQueries != 2 {
		t.Errorf("NumQueries = %d, want 2", r.NumQueries)
	}
	if n := src.calls[key]; n != 1 {
		t.Errorf("shared query fetched %d times, want 1", n)
	}

	// Chat 101 matches both items, chat 102 only the cheap one.
	if n := snd.count(101, ""); n != 2 {
		t.Errorf("chat 101 received %d messages, want 2", n)
	}
	if n := snd.count(102, ""); n != 1 {
		t.Errorf("chat 102 received %d messages, want 1", n)
	}
	if n := snd.count(103, ""); n != 1 {
		t.Errorf("chat 103 received %d messages, want 1", n)
	}
	if r.NumNotified != 4 {
		t.Errorf("NumNotified = %d, want 4", r.NumNotified)
	}

	// A second cycle re-fetches, but everything is seen now.
	if _, err := e.RunCycle(ctx); err != nil {
		t.Fatal(err)
	}
	if n := src.calls[key]; n != 2 {
		t.Errorf("shared query fetched %d times after two cycles, want 2", n)
	}
	if n := snd.count(101, ""); n != 2 {
		t.Errorf("chat 101 received %d messages after second cycle, want 2", n)
	}
}

func TestCycleDeadlineCondition(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	w := addTestWatch(t, st, &watch.Watch{
		ChatID:         201,
		Platform:       watch.Yahoo,
		Query:          "korone",
		SortOrder:      watch.EndingSoonSortOrder,
		MaxPrice:       decimal.NewFromInt(10000),
		MaxMinutesLeft: 30,
	})
	key := w.QueryKey()

	soon, late, ended := int64(10), int64(45), watch.Ended
	a, b, c, d := testItem(1, 500), testItem(2, 500), testItem(3, 500), testItem(4, 500)
	a.MinutesLeft = &soon
	b.MinutesLeft = &late
	c.MinutesLeft = &ended
	// d has no deadline information at all.

	src := &fakeSource{items: map[watch.QueryKey][]*watch.Item{key: {a, b, c, d}}}
	snd := &fakeSender{}
	e := newTestEngine(t, st, src, snd)

	r, err := e.RunCycle(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if r.NumNotified != 1 {
		t.Errorf("NumNotified = %d, want 1", r.NumNotified)
	}
	if n := snd.count(201, ""); n != 1 {
		t.Errorf("chat 201 received %d messages, want 1", n)
	}
}

func TestCycleUnreachableChat(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	w := addTestWatch(t, st, &watch.Watch{
		ChatID:   301,
		Platform: watch.Mercari,
		Query:    "plush",
		MaxPrice: decimal.NewFromInt(3000),
	})
	key := w.QueryKey()

	src := &fakeSource{items: map[watch.QueryKey][]*watch.Item{key: {testItem(1, 100)}}}
	snd := &fakeSender{
		chatErrs: map[int64]error{
			301: notify.NewError(notify.Unreachable, errors.New("forbidden: bot was blocked by the user")),
		},
	}
	e := newTestEngine(t, st, src, snd)

	r, err := e.RunCycle(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(r.RemovedWatchIDs) != 1 || r.RemovedWatchIDs[0] != w.ID {
		t.Errorf("RemovedWatchIDs = %v, want [%d]", r.RemovedWatchIDs, w.ID)
	}
	if _, err := st.GetWatch(ctx, w.ID); err == nil {
		t.Errorf("watch %d still exists after removal", w.ID)
	}
	if r.NumNotified != 0 {
		t.Errorf("NumNotified = %d, want 0", r.NumNotified)
	}
}

func TestCycleQueryFailure(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	bad := addTestWatch(t, st, &watch.Watch{ChatID: 401, Platform: watch.Mercari, Query: "broken", MaxPrice: decimal.NewFromInt(1000)})
	good := addTestWatch(t, st, &watch.Watch{ChatID: 402, Platform: watch.Rakuten, Query: "fine", MaxPrice: decimal.NewFromInt(1000)})

	src := &fakeSource{
		items: map[watch.QueryKey][]*watch.Item{good.QueryKey(): {testItem(1, 100)}},
		errs:  map[watch.QueryKey]error{bad.QueryKey(): errors.New("status 503")},
	}
	snd := &fakeSender{}
	e := newTestEngine(t, st, src, snd)

	r, err := e.RunCycle(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if r.Aborted {
		t.Fatal("cycle was aborted")
	}
	if r.NumFailedQueries != 1 {
		t.Errorf("NumFailedQueries = %d, want 1", r.NumFailedQueries)
	}
	if n := snd.count(401, ""); n != 0 {
		t.Errorf("chat 401 received %d messages, want 0", n)
	}
	if n := snd.count(402, ""); n != 1 {
		t.Errorf("chat 402 received %d messages, want 1", n)
	}

	// The failed query must leave no seen state behind.
	seen, err := st.SeenItems(ctx, bad.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(seen) != 0 {
		t.Errorf("failed watch has %d seen items, want 0", len(seen))
	}
}

func TestCycleFetchBudgetAbort(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	addTestWatch(t, st, &watch.Watch{ChatID: 501, Platform: watch.Mercari, Query: "slow", MaxPrice: decimal.NewFromInt(1000)})

	src := &fakeSource{delay: 200 * time.Millisecond}
	snd := &fakeSender{}
	opts := &Options{
		SendDelay:   time.Millisecond,
		FetchBudget: 20 * time.Millisecond,
	}
	e, err := New(st, src, snd, opts)
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	r, err := e.RunCycle(ctx)
	if err == nil {
		t.Fatal("cycle did not abort on fetch budget")
	}
	if !r.Aborted {
		t.Error("result is not marked aborted")
	}
	if len(snd.sent) != 0 {
		t.Errorf("aborted cycle sent %d messages, want 0", len(snd.sent))
	}
}

func TestCycleImageFallback(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	w := addTestWatch(t, st, &watch.Watch{ChatID: 601, Platform: watch.Mercari, Query: "card", MaxPrice: decimal.NewFromInt(1000)})
	key := w.QueryKey()

	src := &fakeSource{items: map[watch.QueryKey][]*watch.Item{key: {testItem(1, 100)}}}
	snd := &fakeSender{
		richErr: notify.NewError(notify.BadImage, errors.New("bad request: failed to get http url content")),
	}
	e := newTestEngine(t, st, src, snd)

	r, err := e.RunCycle(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if r.NumNotified != 1 {
		t.Errorf("NumNotified = %d, want 1", r.NumNotified)
	}
	if n := snd.count(601, "text"); n != 1 {
		t.Errorf("chat 601 received %d text fallbacks, want 1", n)
	}
	if n := snd.count(601, "rich"); n != 0 {
		t.Errorf("chat 601 received %d rich messages, want 0", n)
	}

	seen, err := st.SeenItems(ctx, w.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(seen) != 1 {
		t.Errorf("watch has %d seen items, want 1", len(seen))
	}
}

func TestCyclePlainTextFallback(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	w := addTestWatch(t, st, &watch.Watch{ChatID: 701, Platform: watch.Mercari, Query: "sticker", MaxPrice: decimal.NewFromInt(1000)})
	key := w.QueryKey()

	src := &fakeSource{items: map[watch.QueryKey][]*watch.Item{key: {testItem(1, 100)}}}
	snd := &fakeSender{
		richErr: notify.NewError(notify.BadImage, errors.New("bad request: wrong type of the web page content")),
		textErr: notify.NewError(notify.BadFormat, errors.New("bad request: can't parse entities")),
	}
	e := newTestEngine(t, st, src, snd)

	r, err := e.RunCycle(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if r.NumNotified != 1 {
		t.Errorf("NumNotified = %d, want 1", r.NumNotified)
	}
	if n := snd.count(701, "plain"); n != 1 {
		t.Errorf("chat 701 received %d plain messages, want 1", n)
	}
	if n := snd.count(701, ""); n != 1 {
		t.Errorf("chat 701 received %d messages total, want 1", n)
	}

	seen, err := st.SeenItems(ctx, w.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(seen) != 1 {
		t.Errorf("watch has %d seen items, want 1", len(seen))
	}
}

func TestCycleDeadlineRefetch(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	w := addTestWatch(t, st, &watch.Watch{
		ChatID:         801,
		Platform:       watch.Yahoo,
		Query:          "okayu",
		SortOrder:      watch.EndingSoonSortOrder,
		MaxPrice:       decimal.NewFromInt(10000),
		MaxMinutesLeft: 20,
	})
	key := w.QueryKey()

	late := int64(25)
	v := testItem(1, 500)
	v.MinutesLeft = &late

	src := &fakeSource{items: map[watch.QueryKey][]*watch.Item{key: {v}}}
	snd := &fakeSender{}
	e := newTestEngine(t, st, src, snd)

	if _, err := e.RunCycle(ctx); err != nil {
		t.Fatal(err)
	}
	if n := snd.count(801, ""); n != 0 {
		t.Errorf("chat 801 received %d messages for an out-of-deadline item, want 0", n)
	}
	seen, err := st.SeenItems(ctx, w.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(seen) != 0 {
		t.Errorf("unmatched item left %d seen entries, want 0", len(seen))
	}

	// The auction moved inside the deadline window by the next cycle.
	soon := int64(15)
	src.mu.Lock()
	v.MinutesLeft = &soon
	src.mu.Unlock()

	r, err := e.RunCycle(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if r.NumNotified != 1 {
		t.Errorf("NumNotified = %d, want 1", r.NumNotified)
	}
	if n := snd.count(801, ""); n != 1 {
		t.Errorf("chat 801 received %d messages after re-fetch, want 1", n)
	}
}
