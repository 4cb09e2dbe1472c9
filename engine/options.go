// Copyright (c) 2025 BVK Chaitanya

package engine

import (
	"os"
	"time"
)

type Options struct {
	// Interval is the delay between the end of one reconcile cycle and the
	// start of the next one.
	Interval time.Duration

	// FetchBudget is the deadline for fetching all deduplicated queries in a
	// cycle. A cycle that cannot complete its fetches within the budget is
	// aborted without any notification or state change.
	FetchBudget time.Duration

	// SendDelay is the minimum gap between two notifications to the same
	// chat.
	SendDelay time.Duration
}

func (v *Options) setDefaults() {
	if v.Interval == 0 {
		v.Interval = 2 * time.Minute
	}
	if v.FetchBudget == 0 {
		v.FetchBudget = 4 * time.Minute
	}
	if v.SendDelay == 0 {
		v.SendDelay = 1200 * time.Millisecond
	}
}

func (v *Options) Check() error {
	if v.Interval <= 0 || v.FetchBudget <= 0 || v.SendDelay <= 0 {
		return os.ErrInvalid
	}
	return nil
}
