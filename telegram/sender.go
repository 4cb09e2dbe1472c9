// Copyright (c) 2025 BVK Chaitanya

package telegram

import (
	"context"
	"errors"
	"strings"

	"github.com/bvk/zenwatch/notify"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Telegram reports photo fetch problems as generic bad-request errors;
// only the description text identifies them.
var badImageHints = []string{
	"failed to get http url content",
	"wrong file identifier",
	"photo_invalid",
	"wrong type of the web page content",
}

var badFormatHints = []string{
	"can't parse entities",
	"entity",
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, bot.ErrorForbidden):
		return notify.NewError(notify.Unreachable, err)
	case errors.Is(err, bot.ErrorBadRequest):
		desc := strings.ToLower(err.Error())
		for _, hint := range badImageHints {
			if strings.Contains(desc, hint) {
				return notify.NewError(notify.BadImage, err)
			}
		}
		for _, hint := range badFormatHints {
			if strings.Contains(desc, hint) {
				return notify.NewError(notify.BadFormat, err)
			}
		}
		return notify.NewError(notify.Transient, err)
	default:
		return notify.NewError(notify.Transient, err)
	}
}

// SendRich delivers a photo message with a MarkdownV2 caption.
func (c *Client) SendRich(ctx context.Context, chatID int64, imageURL, caption string) error {
	p := &bot.SendPhotoParams{
		ChatID:    chatID,
		Photo:     &models.InputFileString{Data: imageURL},
		Caption:   caption,
		ParseMode: models.ParseModeMarkdown,
	}
	if _, err := c.bot.SendPhoto(ctx, p); err != nil {
		return classify(err)
	}
	return nil
}

// SendText delivers a MarkdownV2 text message. Link previews stay
// enabled so the item page renders a thumbnail.
func (c *Client) SendText(ctx context.Context, chatID int64, text string) error {
	p := &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeMarkdown,
	}
	if _, err := c.bot.SendMessage(ctx, p); err != nil {
		return classify(err)
	}
	return nil
}

// SendPlain delivers raw text with no markup at all.
func (c *Client) SendPlain(ctx context.Context, chatID int64, text string) error {
	p := &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	}
	if _, err := c.bot.SendMessage(ctx, p); err != nil {
		return classify(err)
	}
	return nil
}
