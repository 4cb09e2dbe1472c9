// Copyright (c) 2025 BVK Chaitanya

// Package watch defines marketplace watches and their matching rules.
//
// A watch is a user request to monitor a marketplace search query and get
// notified when new items appear below a maximum price. Watches on the
// auction platform can also restrict matches to items ending within a
// deadline.
package watch

import (
	"fmt"
	"slices"

	"github.com/bvk/zenwatch/gobs"
	"github.com/shopspring/decimal"
)

// Marketplace platform names.
const (
	Mercari = "mercari"
	Rakuten = "rakuten"
	Yahoo   = "yahoo"
)

var platforms = []string{Mercari, Rakuten, Yahoo}

func IsSupportedPlatform(name string) bool {
	return slices.Contains(platforms, name)
}

// DefaultSortOrder returns the result ordering used when a watch doesn't
// pick one explicitly. New listings are preferred so that fresh items
// appear at the top of the search results.
func DefaultSortOrder(platform string) string {
	switch platform {
	case Mercari:
		return "sort=LaunchDate"
	case Yahoo:
		return "new&order=desc"
	}
	return ""
}

// EndingSoonSortOrder sorts auction results by their closing time.
const EndingSoonSortOrder = "sort=endtime&order=asc"

type Watch struct {
	// ID is assigned by the store at creation time.
	ID int64

	// ChatID identifies the notification destination.
	ChatID int64

	Platform  string
	Query     string
	SortOrder string

	MaxPrice decimal.Decimal

	// MaxMinutesLeft when non-zero restricts matches to auction items
	// ending within this many minutes.
	MaxMinutesLeft int64
}

// Check returns a non-nil error if the watch fields are unusable. Watches
// failing this check are never fetched or matched.
func (w *Watch) Check() error {
	if !IsSupportedPlatform(w.Platform) {
		return fmt.Errorf("platform %q is not supported", w.Platform)
	}
	if len(w.Query) == 0 {
		return fmt.Errorf("query cannot be empty")
	}
	if w.ChatID == 0 {
		return fmt.Errorf("chat id cannot be zero")
	}
	if !w.MaxPrice.IsPositive() {
		return fmt.Errorf("max price must be positive")
	}
	if w.MaxMinutesLeft < 0 {
		return fmt.Errorf("max minutes left cannot be negative")
	}
	return nil
}

// QueryKey identifies the marketplace request a watch depends on. Watches
// with equal keys share a single fetch.
type QueryKey struct {
	Platform  string
	Query     string
	SortOrder string
}

func (w *Watch) QueryKey() QueryKey {
	return QueryKey{
		Platform:  w.Platform,
		Query:     w.Query,
		SortOrder: w.SortOrder,
	}
}

func (k QueryKey) String() string {
	return fmt.Sprintf("%s:%q:%q", k.Platform, k.Query, k.SortOrder)
}

func FromData(d *gobs.WatchData) (*Watch, error) {
	w := &Watch{
		ID:             d.ID,
		ChatID:         d.ChatID,
		Platform:       d.Platform,
		Query:          d.Query,
		SortOrder:      d.SortOrder,
		MaxPrice:       d.MaxPrice,
		MaxMinutesLeft: d.MaxMinutesLeft,
	}
	if err := w.Check(); err != nil {
		return nil, fmt.Errorf("could not load watch %d: %w", d.ID, err)
	}
	return w, nil
}

func (w *Watch) Data() *gobs.WatchData {
	return &gobs.WatchData{
		ID:             w.ID,
		ChatID:         w.ChatID,
		Platform:       w.Platform,
		Query:          w.Query,
		SortOrder:      w.SortOrder,
		MaxPrice:       w.MaxPrice,
		MaxMinutesLeft: w.MaxMinutesLeft,
	}
}
