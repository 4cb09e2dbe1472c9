// Copyright (c) 2025 BVK Chaitanya

package gobs

import (
	"github.com/shopspring/decimal"
)

type WatchData struct {
	ID     int64
	ChatID int64

	Platform string
	Query    string

	// SortOrder holds the marketplace specific result ordering. Empty
	// value picks the platform default.
	SortOrder string

	MaxPrice decimal.Decimal

	// MaxMinutesLeft when non-zero restricts matches to auction items
	// ending within this many minutes.
	MaxMinutesLeft int64
}

type SeenSet struct {
	URLs []string
}

type SubscriberData struct {
	ChatID   int64
	WatchIDs []int64
}
