// Copyright (c) 2025 BVK Chaitanya

package gobs

import (
	"time"
)

type ServerState struct {
	NumCycles      int64
	NumCycleAborts int64

	NumNotifications int64
	NumWatchRemovals int64

	LastCycleTime    time.Time
	LastCycleAborted bool
}
