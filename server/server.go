// Copyright (c) 2023 BVK Chaitanya

// Package server ties the store, the marketplace source, the reconcile
// engine and the notification services together behind the HTTP API and
// the Telegram front-end.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/bvk/zenwatch/ctxutil"
	"github.com/bvk/zenwatch/engine"
	"github.com/bvk/zenwatch/gobs"
	"github.com/bvk/zenwatch/kvutil"
	"github.com/bvk/zenwatch/pushover"
	"github.com/bvk/zenwatch/source/zenmarket"
	"github.com/bvk/zenwatch/store"
	"github.com/bvk/zenwatch/telegram"
	"github.com/bvkgo/kv"
	"github.com/visvasity/topic"
)

const stateKey = "/server/state"

type Server struct {
	cg ctxutil.CloseGroup

	opts Options

	db kv.Database

	store *store.Store

	source *zenmarket.Client

	engine *engine.Engine

	telegramClient *telegram.Client
	pushoverClient *pushover.Client

	startTime time.Time

	stateLock sync.Mutex
	state     gobs.ServerState
}

func New(ctx context.Context, secrets *Secrets, db kv.Database, opts *Options) (_ *Server, status error) {
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()
	if err := opts.Check(); err != nil {
		return nil, err
	}
	if err := secrets.Check(); err != nil {
		return nil, err
	}

	st, err := store.New(db, opts.SeenHistoryLimit)
	if err != nil {
		return nil, err
	}
	src, err := zenmarket.New(&opts.Zenmarket)
	if err != nil {
		return nil, err
	}

	tclient, err := telegram.New(ctx, secrets.Telegram)
	if err != nil {
		return nil, err
	}
	defer func() {
		if status != nil {
			tclient.Close()
		}
	}()

	var pclient *pushover.Client
	if secrets.Pushover != nil {
		if pclient, err = pushover.New(secrets.Pushover); err != nil {
			return nil, err
		}
	}

	eng, err := engine.New(st, src, tclient, &engine.Options{
		Interval:    opts.CheckInterval,
		FetchBudget: opts.FetchBudget,
		SendDelay:   opts.SendDelay,
	})
	if err != nil {
		return nil, err
	}
	defer func() {
		if status != nil {
			eng.Close()
		}
	}()

	s := &Server{
		opts:           *opts,
		db:             db,
		store:          st,
		source:         src,
		engine:         eng,
		telegramClient: tclient,
		pushoverClient: pclient,
		startTime:      time.Now(),
	}

	state, err := kvutil.GetDB[gobs.ServerState](ctx, db, stateKey)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	if state != nil {
		s.state = *state
	}

	if !opts.NoFrontend {
		if err := s.addFrontendCommands(ctx); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Server) Close() error {
	s.cg.Close()
	s.engine.Close()
	s.telegramClient.Close()
	return nil
}

// Start spawns the periodic reconcile loop and the cycle results
// watcher.
func (s *Server) Start(ctx context.Context) error {
	s.cg.Go(s.goWatchResults)
	s.cg.Go(s.goRunCycles)
	return nil
}

func (s *Server) goRunCycles(ctx context.Context) {
	for ctx.Err() == nil {
		if _, err := s.engine.RunCycle(ctx); err != nil {
			slog.ErrorContext(ctx, "reconcile cycle failed", "err", err)
		}
		ctxutil.Sleep(ctx, s.opts.CheckInterval)
	}
}

func (s *Server) goWatchResults(ctx context.Context) {
	recv, err := s.engine.CycleResults()
	if err != nil {
		slog.ErrorContext(ctx, "could not subscribe to cycle results", "err", err)
		return
	}
	defer recv.Close()

	resultCh, err := topic.ReceiveCh(recv)
	if err != nil {
		slog.ErrorContext(ctx, "could not get cycle results channel", "err", err)
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case r, ok := <-resultCh:
			if !ok {
				return
			}
			s.recordCycle(ctx, r)
		}
	}
}

func (s *Server) recordCycle(ctx context.Context, r *engine.CycleResult) {
	s.stateLock.Lock()
	s.state.NumCycles++
	if r.Aborted {
		s.state.NumCycleAborts++
	}
	s.state.NumNotifications += int64(r.NumNotified)
	s.state.NumWatchRemovals += int64(len(r.RemovedWatchIDs))
	s.state.LastCycleTime = r.EndTime
	s.state.LastCycleAborted = r.Aborted
	state := s.state
	s.stateLock.Unlock()

	if err := kvutil.SetDB(ctx, s.db, stateKey, &state); err != nil {
		slog.ErrorContext(ctx, "could not persist server state (ignored)", "err", err)
	}

	if r.Aborted {
		s.alert(ctx, fmt.Sprintf("reconcile cycle aborted: %v", r.Err))
	}
}

// alert notifies the administrators through Telegram, falling back to
// Pushover when no admin chat is reachable.
func (s *Server) alert(ctx context.Context, msg string) {
	now := time.Now()
	if err := s.telegramClient.SendMessage(ctx, now, msg); err == nil {
		return
	}
	if s.pushoverClient == nil {
		slog.ErrorContext(ctx, "could not deliver admin alert", "message", msg)
		return
	}
	if err := s.pushoverClient.SendMessage(ctx, now, msg); err != nil {
		slog.ErrorContext(ctx, "could not deliver admin alert over pushover", "message", msg, "err", err)
	}
}
