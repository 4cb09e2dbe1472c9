// Copyright (c) 2025 BVK Chaitanya

package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bvk/zenwatch/notify"
	"github.com/bvk/zenwatch/watch"
	"github.com/go-telegram/bot"
)

type watchOutcome struct {
	numMatches int

	// delivered holds item urls whose notification was acknowledged by the
	// messaging service. Only delivered urls may be marked as seen.
	delivered []string

	unreachable bool
}

// notifyWatch evaluates fetched items against one watch and sends a
// notification for every unseen match. Delivery stops at the first
// unreachable-chat failure; other failures skip the item so it is
// retried on the next cycle.
func (e *Engine) notifyWatch(ctx context.Context, w *watch.Watch, items []*watch.Item, seen map[string]bool) *watchOutcome {
	out := new(watchOutcome)
	matched, unseen := matchItems(w, items, seen)
	out.numMatches = len(matched)
	for _, v := range unseen {
		if err := e.limiter(w.ChatID).Wait(ctx); err != nil {
			return out
		}
		if err := e.notifyItem(ctx, w, v); err != nil {
			if notify.KindOf(err) == notify.Unreachable {
				slog.Warn("chat is unreachable; watch will be removed", "watch", w.ID, "chat", w.ChatID, "err", err)
				out.unreachable = true
				return out
			}
			slog.Error("could not send item notification (will retry next cycle)", "watch", w.ID, "item", v.URL, "err", err)
			continue
		}
		out.delivered = append(out.delivered, v.URL)
	}
	return out
}

// notifyItem walks the delivery ladder for one item. Rich photo
// messages fall back to markdown text on image errors and markdown text
// falls back to plain text on formatting errors.
func (e *Engine) notifyItem(ctx context.Context, w *watch.Watch, v *watch.Item) error {
	caption := itemCaption(w, v)

	var err error
	if w.Platform != watch.Yahoo && strings.HasPrefix(v.ImageURL, "http") {
		err = e.sender.SendRich(ctx, w.ChatID, v.ImageURL, caption)
		if err != nil && notify.KindOf(err) == notify.BadImage {
			slog.Warn("could not send photo notification; falling back to text", "watch", w.ID, "image", v.ImageURL, "err", err)
			err = e.sender.SendText(ctx, w.ChatID, caption)
		}
	} else {
		err = e.sender.SendText(ctx, w.ChatID, caption)
	}

	if err != nil && notify.KindOf(err) == notify.BadFormat {
		slog.Warn("could not send markdown notification; falling back to plain text", "watch", w.ID, "item", v.URL, "err", err)
		err = e.sender.SendPlain(ctx, w.ChatID, plainItemCaption(w, v))
	}
	return err
}

func itemCaption(w *watch.Watch, v *watch.Item) string {
	lines := []string{
		"✨ *New Item Found*\n",
		fmt.Sprintf("*Query:* `%s` \\(%s\\)", bot.EscapeMarkdown(w.Query), bot.EscapeMarkdown(capitalize(w.Platform))),
		fmt.Sprintf("*Item:* %s", bot.EscapeMarkdown(v.Name)),
		fmt.Sprintf("*Price:* `¥%s` \\(Max: `¥%s`\\)", watch.FormatJPY(v.Price), watch.FormatJPY(w.MaxPrice)),
	}
	if w.MaxMinutesLeft > 0 {
		timeInfo := "*Ending In:* `?`"
		switch {
		case v.MinutesLeft != nil && *v.MinutesLeft == watch.Ended:
			timeInfo = "*Ending In:* `Ended`"
		case v.MinutesLeft != nil:
			timeInfo = fmt.Sprintf("*Ending In:* `≈ %d min`", *v.MinutesLeft)
		}
		lines = append(lines, fmt.Sprintf("%s \\(Limit: `≤ %d min`\\)", timeInfo, w.MaxMinutesLeft))
	}
	lines = append(lines, fmt.Sprintf("\n*Link:* [View Item](%s)", v.URL))
	return strings.Join(lines, "\n")
}

func plainItemCaption(w *watch.Watch, v *watch.Item) string {
	lines := []string{
		"✨ New Item Found!",
		fmt.Sprintf("Query: %s (%s)", w.Query, capitalize(w.Platform)),
		fmt.Sprintf("Item: %s", v.Name),
		fmt.Sprintf("Price: ¥%s (Max: ¥%s)", watch.FormatJPY(v.Price), watch.FormatJPY(w.MaxPrice)),
	}
	if w.MaxMinutesLeft > 0 {
		timeInfo := "Ending In: ?"
		switch {
		case v.MinutesLeft != nil && *v.MinutesLeft == watch.Ended:
			timeInfo = "Ending In: Ended"
		case v.MinutesLeft != nil:
			timeInfo = fmt.Sprintf("Ending In: ~%d min", *v.MinutesLeft)
		}
		lines = append(lines, fmt.Sprintf("%s (Limit: <= %d min)", timeInfo, w.MaxMinutesLeft))
	}
	lines = append(lines, "\nLink: "+v.URL)
	return strings.Join(lines, "\n")
}

func capitalize(s string) string {
	if len(s) == 0 {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
