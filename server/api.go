// Copyright (c) 2023 BVK Chaitanya

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"runtime"

	"github.com/bvk/zenwatch/api"
	"github.com/bvk/zenwatch/watch"
	"github.com/shirou/gopsutil/v4/process"
)

// HandlerMap returns the HTTP handlers for the server API endpoints.
func (s *Server) HandlerMap() map[string]http.Handler {
	return map[string]http.Handler{
		api.StatusPath:      httpPostJSONHandler(s.doStatus),
		api.WatchAddPath:    httpPostJSONHandler(s.doWatchAdd),
		api.WatchListPath:   httpPostJSONHandler(s.doWatchList),
		api.WatchRemovePath: httpPostJSONHandler(s.doWatchRemove),
	}
}

func httpPostJSONHandler[T1 any, T2 any](fn func(context.Context, *T1) (*T2, error)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "only POST requests are supported", http.StatusMethodNotAllowed)
			return
		}
		req := new(T1)
		if err := json.NewDecoder(r.Body).Decode(req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		resp, err := fn(r.Context(), req)
		if err != nil {
			code := http.StatusInternalServerError
			if errors.Is(err, os.ErrNotExist) {
				code = http.StatusNotFound
			} else if errors.Is(err, os.ErrInvalid) {
				code = http.StatusBadRequest
			}
			http.Error(w, err.Error(), code)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}

func (s *Server) doStatus(ctx context.Context, req *api.StatusRequest) (*api.StatusResponse, error) {
	watches, nbad, err := s.store.ListWatches(ctx)
	if err != nil {
		return nil, err
	}
	subscribers, err := s.store.Subscribers(ctx)
	if err != nil {
		return nil, err
	}

	s.stateLock.Lock()
	state := s.state
	s.stateLock.Unlock()

	resp := &api.StatusResponse{
		StartTime:      s.startTime,
		NumWatches:     len(watches),
		NumMalformed:   nbad,
		NumSubscribers: len(subscribers),

		NumCycles:        state.NumCycles,
		NumCycleAborts:   state.NumCycleAborts,
		NumNotifications: state.NumNotifications,
		NumWatchRemovals: state.NumWatchRemovals,
		LastCycleTime:    state.LastCycleTime,
		LastCycleAborted: state.LastCycleAborted,

		NumGoroutines: runtime.NumGoroutine(),
	}

	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if mem, err := p.MemoryInfo(); err == nil {
			resp.RSS = mem.RSS
		}
		if pct, err := p.CPUPercent(); err == nil {
			resp.CPUPercent = pct
		}
	}
	return resp, nil
}

func (s *Server) doWatchAdd(ctx context.Context, req *api.WatchAddRequest) (*api.WatchAddResponse, error) {
	platform := req.Platform
	if !watch.IsSupportedPlatform(platform) {
		return nil, fmt.Errorf("unsupported platform %q: %w", platform, os.ErrInvalid)
	}
	sortOrder := req.SortOrder
	if len(sortOrder) == 0 {
		sortOrder = watch.DefaultSortOrder(platform)
	}
	w := &watch.Watch{
		ChatID:         req.ChatID,
		Platform:       platform,
		Query:          req.Query,
		SortOrder:      sortOrder,
		MaxPrice:       req.MaxPrice,
		MaxMinutesLeft: req.MaxMinutesLeft,
	}
	id, err := s.store.CreateWatch(ctx, w)
	if err != nil {
		return nil, err
	}
	return &api.WatchAddResponse{ID: id}, nil
}

func (s *Server) doWatchList(ctx context.Context, req *api.WatchListRequest) (*api.WatchListResponse, error) {
	var watches []*watch.Watch
	var nbad int
	var err error
	if req.ChatID != 0 {
		watches, err = s.store.ListWatchesFor(ctx, req.ChatID)
	} else {
		watches, nbad, err = s.store.ListWatches(ctx)
	}
	if err != nil {
		return nil, err
	}

	resp := &api.WatchListResponse{
		NumMalformed: nbad,
	}
	for _, w := range watches {
		resp.Watches = append(resp.Watches, &api.WatchListResponseItem{
			ID:             w.ID,
			ChatID:         w.ChatID,
			Platform:       w.Platform,
			Query:          w.Query,
			SortOrder:      w.SortOrder,
			MaxPrice:       w.MaxPrice,
			MaxMinutesLeft: w.MaxMinutesLeft,
		})
	}
	return resp, nil
}

func (s *Server) doWatchRemove(ctx context.Context, req *api.WatchRemoveRequest) (*api.WatchRemoveResponse, error) {
	if err := s.store.DeleteWatch(ctx, req.ID); err != nil {
		return nil, err
	}
	return &api.WatchRemoveResponse{}, nil
}
