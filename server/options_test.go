// Copyright (c) 2025 BVK Chaitanya

package server

import (
	"testing"
	"time"
)

func TestOptionsCheck(t *testing.T) {
	var opts Options
	opts.setDefaults()
	if err := opts.Check(); err != nil {
		t.Fatalf("default options fail the check: %v", err)
	}

	bad := []Options{
		{CheckInterval: -time.Second},
		{FetchBudget: -time.Second},
		{SendDelay: -time.Second},
		{SeenHistoryLimit: -1},
	}
	for i, v := range bad {
		v.setDefaults()
		if err := v.Check(); err == nil {
			t.Errorf("bad options %d passed the check", i)
		}
	}
}
