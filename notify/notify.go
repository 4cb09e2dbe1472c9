// Copyright (c) 2025 BVK Chaitanya

// Package notify defines the notification delivery contract and the
// failure classification the engine branches on.
package notify

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a delivery failure by the recovery it allows.
type Kind int

const (
	// Transient failures may succeed on a later attempt. The item is
	// left unrecorded so it gets retried next cycle.
	Transient Kind = iota

	// BadImage means the rich message was rejected because of its image
	// attachment. The same content can be retried as a text message.
	BadImage

	// BadFormat means the message markup was rejected. The content can
	// be retried as plain text without markup.
	BadFormat

	// Unreachable means the destination refuses deliveries altogether.
	// Further sends to it are pointless.
	Unreachable
)

func (k Kind) String() string {
	switch k {
	case BadImage:
		return "bad-image"
	case BadFormat:
		return "bad-format"
	case Unreachable:
		return "unreachable"
	}
	return "transient"
}

type Error struct {
	Kind Kind
	Err  error
}

func NewError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the failure kind of a delivery error. Errors without a
// classification are considered transient.
func KindOf(err error) Kind {
	var v *Error
	if errors.As(err, &v) {
		return v.Kind
	}
	return Transient
}

// Sender delivers item notifications to a destination chat.
type Sender interface {
	// SendRich sends a photo message with a formatted caption.
	SendRich(ctx context.Context, chatID int64, imageURL, caption string) error

	// SendText sends a formatted text message with link previews.
	SendText(ctx context.Context, chatID int64, text string) error

	// SendPlain sends an unformatted text message.
	SendPlain(ctx context.Context, chatID int64, text string) error
}
