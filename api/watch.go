// Copyright (c) 2025 BVK Chaitanya

// Package api defines the HTTP request/response types for the zenwatch
// server.
package api

import (
	"github.com/shopspring/decimal"
)

const WatchAddPath = "/zenwatch/watch/add"

type WatchAddRequest struct {
	ChatID int64

	Platform string

	Query string

	// SortOrder is optional; the platform default is used when empty.
	SortOrder string

	MaxPrice decimal.Decimal

	// MaxMinutesLeft restricts matches to auctions ending within the given
	// number of minutes. Zero means no deadline condition.
	MaxMinutesLeft int64
}

type WatchAddResponse struct {
	ID int64
}

const WatchListPath = "/zenwatch/watch/list"

type WatchListRequest struct {
	// ChatID limits the listing to one subscriber. Zero lists all watches.
	ChatID int64
}

type WatchListResponseItem struct {
	ID     int64
	ChatID int64

	Platform  string
	Query     string
	SortOrder string

	MaxPrice       decimal.Decimal
	MaxMinutesLeft int64
}

type WatchListResponse struct {
	Watches []*WatchListResponseItem

	NumMalformed int
}

const WatchRemovePath = "/zenwatch/watch/remove"

type WatchRemoveRequest struct {
	ID int64
}

type WatchRemoveResponse struct {
}
