// Copyright (c) 2025 BVK Chaitanya

package watch

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Ended marks auction items whose listing has already closed.
const Ended int64 = -1

// Item is a single marketplace listing from a search result page.
type Item struct {
	Name string

	// Price in JPY.
	Price decimal.Decimal

	URL string

	// ImageURL may be empty when the listing carries no usable image.
	ImageURL string

	// MinutesLeft is the approximate time till an auction closes. Nil
	// when the platform doesn't report it or it couldn't be parsed.
	// Value Ended means the auction is over.
	MinutesLeft *int64
}

// Check returns a non-nil error when the item is missing fields every
// consumer depends on. Such items are dropped, never matched.
func (v *Item) Check() error {
	if len(v.URL) == 0 {
		return fmt.Errorf("item url cannot be empty")
	}
	if v.Price.IsNegative() {
		return fmt.Errorf("item price cannot be negative")
	}
	return nil
}

// FormatJPY renders a price with thousands separators and no decimal
// part, the way marketplace listings show it.
func FormatJPY(v decimal.Decimal) string {
	s := v.Round(0).BigInt().String()
	if len(s) <= 3 {
		return s
	}
	var sb strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		sb.WriteString(s[:pre])
	}
	for i := pre; i < len(s); i += 3 {
		if sb.Len() > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(s[i : i+3])
	}
	return sb.String()
}

// Matches reports whether the item satisfies the watch criteria. Items
// failing their validity check never match.
func (w *Watch) Matches(v *Item) bool {
	if v.Check() != nil {
		return false
	}
	if v.Price.GreaterThan(w.MaxPrice) {
		return false
	}
	if w.MaxMinutesLeft > 0 {
		// Unknown or ended closing time fails a deadline watch.
		if v.MinutesLeft == nil {
			return false
		}
		mins := *v.MinutesLeft
		if mins == Ended || mins < 0 {
			return false
		}
		if mins > w.MaxMinutesLeft {
			return false
		}
	}
	return true
}
