// Copyright (c) 2025 BVK Chaitanya

// Package engine implements the reconcile cycle. Each cycle loads the
// active watches, fetches their deduplicated queries concurrently,
// evaluates match conditions and delivers notifications for items not
// seen before.
package engine

import (
	"sync"
	"time"

	"github.com/bvk/zenwatch/notify"
	"github.com/bvk/zenwatch/source"
	"github.com/bvk/zenwatch/store"
	"github.com/bvk/zenwatch/syncmap"
	"github.com/visvasity/topic"
	"golang.org/x/time/rate"
)

type Engine struct {
	opts Options

	store *store.Store

	source source.Source

	sender notify.Sender

	// cycleLock serializes cycles. A slow cycle never overlaps with the
	// next one.
	cycleLock sync.Mutex

	limiterMap syncmap.Map[int64, *rate.Limiter]

	resultTopic *topic.Topic[*CycleResult]
}

// CycleResult summarizes one reconcile cycle.
type CycleResult struct {
	StartTime time.Time
	EndTime   time.Time

	// Aborted is true when the cycle stopped early without evaluating any
	// watch. Err holds the reason.
	Aborted bool
	Err     error

	NumWatches   int
	NumMalformed int

	NumQueries       int
	NumFailedQueries int

	NumMatches  int
	NumNotified int

	// RemovedWatchIDs lists watches deleted because their chat became
	// unreachable.
	RemovedWatchIDs []int64
}

func New(st *store.Store, src source.Source, sender notify.Sender, opts *Options) (*Engine, error) {
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()
	if err := opts.Check(); err != nil {
		return nil, err
	}

	e := &Engine{
		opts:        *opts,
		store:       st,
		source:      src,
		sender:      sender,
		resultTopic: topic.New[*CycleResult](),
	}
	return e, nil
}

func (e *Engine) Close() error {
	e.resultTopic.Close()
	return nil
}

func (e *Engine) Interval() time.Duration {
	return e.opts.Interval
}

// CycleResults subscribes to per-cycle summaries.
func (e *Engine) CycleResults() (*topic.Receiver[*CycleResult], error) {
	return topic.Subscribe(e.resultTopic, 1, false)
}

func (e *Engine) limiter(chatID int64) *rate.Limiter {
	l, ok := e.limiterMap.Load(chatID)
	if !ok {
		l, _ = e.limiterMap.LoadOrStore(chatID, rate.NewLimiter(rate.Every(e.opts.SendDelay), 1))
	}
	return l
}
