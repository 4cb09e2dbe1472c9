// Copyright (c) 2025 BVK Chaitanya

package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bvk/zenwatch/telegram"
	"github.com/bvk/zenwatch/watch"
	"github.com/go-telegram/bot"
	"github.com/shopspring/decimal"
	"github.com/visvasity/cli"
)

func (s *Server) addFrontendCommands(ctx context.Context) error {
	cmds := []*telegram.Command{
		{Name: "monitor", Purpose: "Start monitoring a marketplace query", Handler: s.cmdMonitor},
		{Name: "monitor_ending", Purpose: "Monitor Yahoo auctions ending soon", Handler: s.cmdMonitorEnding},
		{Name: "list", Purpose: "List your active watches", Handler: s.cmdList},
		{Name: "stop", Purpose: "Stop a watch by its id", Handler: s.cmdStop},
		{Name: "support", Purpose: "Send a message to the administrators", Handler: s.cmdSupport},
		{Name: "list_all", Purpose: "List watches of all subscribers", Handler: s.cmdListAll, AdminOnly: true},
		{Name: "announce_wipe", Purpose: "Announce a database wipe to all subscribers", Handler: s.cmdAnnounceWipe, AdminOnly: true},
	}
	for _, cmd := range cmds {
		if err := s.telegramClient.AddCommand(ctx, cmd); err != nil {
			return fmt.Errorf("could not add telegram command %q: %w", cmd.Name, err)
		}
	}
	return nil
}

const monitorUsage = "*Usage:* `/monitor <platform> '<query>' <max_price>`\n" +
	"`<platform>`: mercari, rakuten or yahoo\n" +
	"`<query>`: search terms; use quotes `' '` for multiple words\n" +
	"`<max_price>`: maximum price in JPY\n" +
	"*Example:* `/monitor mercari 'hololive plush' 5000`"

const monitorEndingUsage = "*Usage:* `/monitor_ending '<query>' <max_price> <max_minutes>`\n" +
	"Monitors Yahoo auctions ending within a time limit and below a price\\.\n" +
	"*Example:* `/monitor_ending 'korone figure' 10000 30`"

func (s *Server) cmdMonitor(ctx context.Context, args []string) error {
	stdout := cli.Stdout(ctx)
	chatID := telegram.ChatID(ctx)
	if chatID == 0 {
		return os.ErrInvalid
	}
	if len(args) != 3 {
		fmt.Fprint(stdout, monitorUsage)
		return nil
	}

	platform := strings.ToLower(args[0])
	if !watch.IsSupportedPlatform(platform) {
		fmt.Fprintf(stdout, "⚠️ Unsupported platform `%s`\\.\n\n%s", bot.EscapeMarkdown(platform), monitorUsage)
		return nil
	}
	query := args[1]
	maxPrice, err := decimal.NewFromString(args[2])
	if err != nil || !maxPrice.IsPositive() {
		fmt.Fprintf(stdout, "⚠️ Invalid max price `%s`\\.\n\n%s", bot.EscapeMarkdown(args[2]), monitorUsage)
		return nil
	}

	w := &watch.Watch{
		ChatID:    chatID,
		Platform:  platform,
		Query:     query,
		SortOrder: watch.DefaultSortOrder(platform),
		MaxPrice:  maxPrice,
	}
	id, err := s.store.CreateWatch(ctx, w)
	if err != nil {
		return fmt.Errorf("could not create watch: %w", err)
	}
	fmt.Fprintf(stdout, "✅ Monitoring started for '%s' on %s \\(Max Price: `¥%s`\\)\\. Watch ID: `%d`\nChecking every %d mins\\.",
		bot.EscapeMarkdown(query), bot.EscapeMarkdown(capitalize(platform)), watch.FormatJPY(maxPrice), id, int(s.opts.CheckInterval.Minutes()))
	return nil
}

func (s *Server) cmdMonitorEnding(ctx context.Context, args []string) error {
	stdout := cli.Stdout(ctx)
	chatID := telegram.ChatID(ctx)
	if chatID == 0 {
		return os.ErrInvalid
	}
	if len(args) != 3 {
		fmt.Fprint(stdout, monitorEndingUsage)
		return nil
	}

	query := args[0]
	maxPrice, err := decimal.NewFromString(args[1])
	if err != nil || !maxPrice.IsPositive() {
		fmt.Fprintf(stdout, "⚠️ Invalid max price `%s`\\.\n\n%s", bot.EscapeMarkdown(args[1]), monitorEndingUsage)
		return nil
	}
	maxMinutes, err := strconv.ParseInt(args[2], 10, 64)
	if err != nil || maxMinutes <= 0 {
		fmt.Fprintf(stdout, "⚠️ Invalid minutes limit `%s`\\.\n\n%s", bot.EscapeMarkdown(args[2]), monitorEndingUsage)
		return nil
	}

	w := &watch.Watch{
		ChatID:         chatID,
		Platform:       watch.Yahoo,
		Query:          query,
		SortOrder:      watch.EndingSoonSortOrder,
		MaxPrice:       maxPrice,
		MaxMinutesLeft: maxMinutes,
	}
	id, err := s.store.CreateWatch(ctx, w)
	if err != nil {
		return fmt.Errorf("could not create watch: %w", err)
	}
	fmt.Fprintf(stdout, "✅ Yahoo Auction monitoring started for '%s' \\(Max Price: `¥%s`, Ending within: %d min\\)\\. Watch ID: `%d`\nChecking every %d mins\\.",
		bot.EscapeMarkdown(query), watch.FormatJPY(maxPrice), maxMinutes, id, int(s.opts.CheckInterval.Minutes()))
	return nil
}

func watchDescription(w *watch.Watch, indent string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "\n%s• *ID:* `%d`\n", indent, w.ID)
	fmt.Fprintf(&sb, "%s  *Platform:* %s\n", indent, bot.EscapeMarkdown(capitalize(w.Platform)))
	fmt.Fprintf(&sb, "%s  *Query:* `%s`\n", indent, bot.EscapeMarkdown(w.Query))
	fmt.Fprintf(&sb, "%s  *Max Price:* `¥%s`", indent, watch.FormatJPY(w.MaxPrice))
	if w.MaxMinutesLeft > 0 {
		fmt.Fprintf(&sb, "\n%s  *Condition:* Ending ≤ %d min", indent, w.MaxMinutesLeft)
	}
	if len(w.SortOrder) > 0 {
		fmt.Fprintf(&sb, " \\(Sort: `%s`\\)", bot.EscapeMarkdown(w.SortOrder))
	}
	return sb.String()
}

func (s *Server) cmdList(ctx context.Context, args []string) error {
	stdout := cli.Stdout(ctx)
	chatID := telegram.ChatID(ctx)
	if chatID == 0 {
		return os.ErrInvalid
	}

	watches, err := s.store.ListWatchesFor(ctx, chatID)
	if err != nil {
		return fmt.Errorf("could not list watches: %w", err)
	}
	if len(watches) == 0 {
		fmt.Fprint(stdout, "You have no active watches\\. Use `/monitor` to create one\\.")
		return nil
	}

	fmt.Fprint(stdout, "*Your active watches:*\n")
	for _, w := range watches {
		fmt.Fprint(stdout, watchDescription(w, ""))
	}
	fmt.Fprint(stdout, "\n\nUse `/stop <id>` to remove a watch\\.")
	return nil
}

func (s *Server) cmdStop(ctx context.Context, args []string) error {
	stdout := cli.Stdout(ctx)
	chatID := telegram.ChatID(ctx)
	if chatID == 0 {
		return os.ErrInvalid
	}
	if len(args) != 1 {
		fmt.Fprint(stdout, "*Usage:* `/stop <id>`")
		return nil
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Fprintf(stdout, "⚠️ Invalid watch id `%s`\\.", bot.EscapeMarkdown(args[0]))
		return nil
	}

	w, err := s.store.GetWatch(ctx, id)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(stdout, "⚠️ Watch ID `%d` not found\\.", id)
			return nil
		}
		return err
	}
	// Subscribers can only stop their own watches.
	if w.ChatID != chatID && !s.telegramClient.IsAdmin(chatID) {
		fmt.Fprintf(stdout, "⚠️ Watch ID `%d` not found\\.", id)
		return nil
	}

	if err := s.store.DeleteWatch(ctx, id); err != nil {
		return fmt.Errorf("could not delete watch %d: %w", id, err)
	}
	fmt.Fprintf(stdout, "🛑 Stopped watch `%d`\\.", id)
	return nil
}

func (s *Server) cmdSupport(ctx context.Context, args []string) error {
	stdout := cli.Stdout(ctx)
	chatID := telegram.ChatID(ctx)
	if chatID == 0 {
		return os.ErrInvalid
	}
	if len(args) == 0 {
		fmt.Fprint(stdout, "*Usage:* `/support <message>`")
		return nil
	}

	msg := fmt.Sprintf("support request from chat %d: %s", chatID, strings.Join(args, " "))
	if err := s.telegramClient.SendMessage(ctx, time.Now(), msg); err != nil {
		return fmt.Errorf("could not forward support request: %w", err)
	}
	fmt.Fprint(stdout, "✅ Your message was forwarded to the administrators\\.")
	return nil
}

func (s *Server) cmdListAll(ctx context.Context, args []string) error {
	stdout := cli.Stdout(ctx)

	watches, nbad, err := s.store.ListWatches(ctx)
	if err != nil {
		return fmt.Errorf("could not list watches: %w", err)
	}
	if len(watches) == 0 {
		fmt.Fprint(stdout, "No active watches\\.")
		return nil
	}

	byChat := make(map[int64][]*watch.Watch)
	var chats []int64
	for _, w := range watches {
		if _, ok := byChat[w.ChatID]; !ok {
			chats = append(chats, w.ChatID)
		}
		byChat[w.ChatID] = append(byChat[w.ChatID], w)
	}

	fmt.Fprintf(stdout, "*Total watches:* %d \\(malformed records: %d\\)\n", len(watches), nbad)
	for _, chat := range chats {
		fmt.Fprintf(stdout, "\nChat `%d` \\(%d watches\\)", chat, len(byChat[chat]))
		for _, w := range byChat[chat] {
			fmt.Fprint(stdout, watchDescription(w, "  "))
		}
	}
	return nil
}

func (s *Server) cmdAnnounceWipe(ctx context.Context, args []string) error {
	stdout := cli.Stdout(ctx)

	subscribers, err := s.store.Subscribers(ctx)
	if err != nil {
		return fmt.Errorf("could not list subscribers: %w", err)
	}
	if len(subscribers) == 0 {
		fmt.Fprint(stdout, "No subscribers with active watches\\.")
		return nil
	}

	nsent, nfailed := 0, 0
	for _, chat := range subscribers {
		watches, err := s.store.ListWatchesFor(ctx, chat)
		if err != nil || len(watches) == 0 {
			continue
		}

		var sb strings.Builder
		sb.WriteString("🚨 Bot Maintenance Announcement 🚨\n\n")
		sb.WriteString("The watch database will be reset for maintenance shortly and all your watches will be removed.\n")
		sb.WriteString("Please save the details below to re-add them afterwards.\n\nYour current watches:\n")
		for _, w := range watches {
			fmt.Fprintf(&sb, "\n• %s %q max ¥%s", capitalize(w.Platform), w.Query, watch.FormatJPY(w.MaxPrice))
			if w.MaxMinutesLeft > 0 {
				fmt.Fprintf(&sb, " ending <= %d min", w.MaxMinutesLeft)
			}
		}

		if err := s.telegramClient.SendPlain(ctx, chat, sb.String()); err != nil {
			nfailed++
			continue
		}
		nsent++
	}

	fmt.Fprintf(stdout, "Announcement sent to %d subscribers \\(%d failed\\)\\.", nsent, nfailed)
	return nil
}

func capitalize(s string) string {
	if len(s) == 0 {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
