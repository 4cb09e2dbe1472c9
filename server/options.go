// Copyright (c) 2023 BVK Chaitanya

package server

import (
	"os"
	"time"

	"github.com/bvk/zenwatch/source/zenmarket"
)

type Options struct {
	// CheckInterval is the delay between reconcile cycles.
	CheckInterval time.Duration

	// FetchBudget is the deadline for all query fetches within one cycle.
	FetchBudget time.Duration

	// SendDelay is the minimum gap between two notifications to the same
	// chat.
	SendDelay time.Duration

	// SeenHistoryLimit bounds the per-watch notified items history. Zero
	// keeps an unbounded history.
	SeenHistoryLimit int

	// NoFrontend skips registering the Telegram bot command handlers.
	// Notifications are still delivered.
	NoFrontend bool

	Zenmarket zenmarket.Options
}

func (v *Options) setDefaults() {
	if v.CheckInterval == 0 {
		v.CheckInterval = 2 * time.Minute
	}
	if v.FetchBudget == 0 {
		v.FetchBudget = 4 * time.Minute
	}
	if v.SendDelay == 0 {
		v.SendDelay = 1200 * time.Millisecond
	}
}

func (v *Options) Check() error {
	if v.CheckInterval <= 0 || v.FetchBudget <= 0 || v.SendDelay <= 0 {
		return os.ErrInvalid
	}
	if v.SeenHistoryLimit < 0 {
		return os.ErrInvalid
	}
	return nil
}
