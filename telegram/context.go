// Copyright (c) 2025 BVK Chaitanya

package telegram

import (
	"context"
)

type chatIDKey struct{}

// WithChatID returns a context carrying the chat a command came from.
func WithChatID(ctx context.Context, chatID int64) context.Context {
	return context.WithValue(ctx, chatIDKey{}, chatID)
}

// ChatID returns the requesting chat id or zero when the context didn't
// come from a chat message.
func ChatID(ctx context.Context) int64 {
	if v, ok := ctx.Value(chatIDKey{}).(int64); ok {
		return v
	}
	return 0
}
