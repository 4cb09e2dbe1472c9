// Copyright (c) 2025 BVK Chaitanya

package api

import (
	"time"
)

const StatusPath = "/zenwatch/status"

type StatusRequest struct {
}

type StatusResponse struct {
	StartTime time.Time

	NumWatches     int
	NumMalformed   int
	NumSubscribers int

	NumCycles        int64
	NumCycleAborts   int64
	NumNotifications int64
	NumWatchRemovals int64

	LastCycleTime    time.Time
	LastCycleAborted bool

	NumGoroutines int
	RSS           uint64
	CPUPercent    float64
}
