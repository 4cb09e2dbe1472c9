// Copyright (c) 2025 BVK Chaitanya

// Package telegram implements the Telegram front-end. It dispatches bot
// commands to registered handlers and delivers item notifications with
// the fallback behavior the engine relies on.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/bvk/zenwatch/ctxutil"
	"github.com/bvk/zenwatch/syncmap"
	"github.com/visvasity/cli"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

type CmdFunc = cli.CmdFunc

type Command struct {
	Name    string
	Purpose string
	Handler CmdFunc

	// AdminOnly commands are rejected for chats outside the admin list.
	AdminOnly bool
}

type Client struct {
	cg ctxutil.CloseGroup

	mu sync.Mutex

	bot *bot.Bot

	self *models.User

	secrets *Secrets

	commandMap syncmap.Map[string, *Command]
}

var start = time.Now()

func New(ctx context.Context, secrets *Secrets) (_ *Client, status error) {
	if err := secrets.Check(); err != nil {
		return nil, err
	}

	c := &Client{
		secrets: secrets.Clone(),
	}

	opts := []bot.Option{
		bot.WithDefaultHandler(c.handler),
	}
	bot, err := bot.New(secrets.BotToken, opts...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if status != nil {
			bot.Close(ctx)
		}
	}()
	c.bot = bot

	self, err := bot.GetMe(ctx)
	if err != nil {
		return nil, err
	}
	c.self = self

	c.commandMap.Store("uptime", &Command{
		Name:    "uptime",
		Purpose: "Prints zenwatch uptime",
		Handler: c.uptime,
	})
	c.commandMap.Store("version", &Command{
		Name:    "version",
		Purpose: "Prints version information",
		Handler: c.version,
	})

	if ok, err := c.bot.SetMyCommands(ctx, c.commands()); err != nil {
		return nil, err
	} else if !ok {
		return nil, fmt.Errorf("could not set bot commands")
	}

	c.cg.Go(func(ctx context.Context) {
		c.bot.Start(ctx)
	})
	return c, nil
}

func (c *Client) Close() error {
	c.cg.Close()
	return nil
}

func (c *Client) BotUserName() string {
	return c.self.Username
}

func (c *Client) IsAdmin(chatID int64) bool {
	return slices.Contains(c.secrets.AdminIDs, chatID)
}

func (c *Client) AddCommand(ctx context.Context, cmd *Command) error {
	if cmd == nil || len(cmd.Name) == 0 || len(cmd.Purpose) == 0 || cmd.Handler == nil {
		return os.ErrInvalid
	}
	if _, loaded := c.commandMap.LoadOrStore(cmd.Name, cmd); loaded {
		return os.ErrExist
	}
	if ok, err := c.bot.SetMyCommands(ctx, c.commands()); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("could not set bot commands")
	}
	return nil
}

func (c *Client) commands() *bot.SetMyCommandsParams {
	c.mu.Lock()
	defer c.mu.Unlock()

	var cmds []models.BotCommand
	for name, cdata := range c.commandMap.Range {
		if cdata.AdminOnly {
			// Administrative commands stay out of the public menu.
			continue
		}
		cmds = append(cmds, models.BotCommand{
			Command:     name,
			Description: cdata.Purpose,
		})
	}
	p := &bot.SetMyCommandsParams{
		Commands: cmds,
	}
	return p
}

// splitArgs breaks a command tail into arguments. Single or double
// quoted sections keep their spaces, so queries like 'hololive plush'
// arrive as one argument.
func splitArgs(s string) []string {
	var args []string
	var sb strings.Builder
	quote := rune(0)
	pending := false

	flush := func() {
		if pending {
			args = append(args, sb.String())
			sb.Reset()
			pending = false
		}
	}
	for _, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
				continue
			}
			sb.WriteRune(r)
		case r == '\'' || r == '"':
			quote = r
			pending = true
		case r == ' ' || r == '\t' || r == '\n':
			flush()
		default:
			sb.WriteRune(r)
			pending = true
		}
	}
	flush()
	return args
}

// Telegram rejects messages longer than this many characters.
const maxMessageLen = 4096

// splitMessage breaks text into chunks under the message size limit,
// preferring newline boundaries.
func splitMessage(text string) []string {
	if len(text) <= maxMessageLen {
		return []string{text}
	}
	var chunks []string
	for len(text) > maxMessageLen {
		cut := strings.LastIndexByte(text[:maxMessageLen], '\n')
		if cut <= 0 {
			cut = maxMessageLen
		}
		chunks = append(chunks, text[:cut])
		text = strings.TrimLeft(text[cut:], "\n")
	}
	if len(text) > 0 {
		chunks = append(chunks, text)
	}
	return chunks
}

func (c *Client) getCommand(update *models.Update) (string, []string, *Command, error) {
	if update.Message == nil {
		return "", nil, nil, os.ErrInvalid
	}
	if len(update.Message.Entities) == 0 {
		return "", nil, nil, os.ErrInvalid
	}
	entity := update.Message.Entities[0]
	if entity.Type != models.MessageEntityTypeBotCommand {
		return "", nil, nil, os.ErrInvalid
	}
	if entity.Offset != 0 {
		return "", nil, nil, os.ErrInvalid
	}
	if update.Message.Text[0] != '/' {
		return "", nil, nil, os.ErrInvalid
	}
	cmd := update.Message.Text[1:entity.Length]
	// Commands in group chats arrive as /name@botname.
	cmd, _, _ = strings.Cut(cmd, "@")
	args := splitArgs(strings.TrimSpace(update.Message.Text[entity.Length:]))
	cdata, ok := c.commandMap.Load(cmd)
	if !ok {
		return cmd, nil, nil, os.ErrNotExist
	}
	return cmd, args, cdata, nil
}

// SendMessage delivers an operational message to every admin chat.
// Returns a non-nil error only when no admin chat could be reached.
func (c *Client) SendMessage(ctx context.Context, at time.Time, text string) error {
	msg := at.Format("2006-01-02 15:04:05 MST") + " " + text
	slog.Info("sending admin notification", "at", at, "message", text)

	nsent := 0
	var lastErr error
	for _, chatID := range c.secrets.AdminIDs {
		m := &bot.SendMessageParams{
			ChatID: chatID,
			Text:   msg,
		}
		if _, err := c.bot.SendMessage(ctx, m); err != nil {
			slog.Error("could not notify admin chat (ignored)", "chat", chatID, "err", err)
			lastErr = err
			continue
		}
		nsent++
	}
	if nsent == 0 && lastErr != nil {
		return fmt.Errorf("could not notify any admin chat: %w", lastErr)
	}
	return nil
}

func (c *Client) handler(ctx context.Context, bot *bot.Bot, update *models.Update) {
	if bot != c.bot {
		slog.Error("handler invoked with invalid bot value", "want", c.bot, "got", bot)
		return
	}
	if update.Message == nil {
		return
	}

	if err := c.respond(ctx, update); err != nil {
		slog.Error("could not respond to user command (ignored)", "chat", update.Message.Chat.ID, "err", err)
		return
	}
}

func (c *Client) respond(ctx context.Context, update *models.Update) (status error) {
	True := true
	chatID := update.Message.Chat.ID

	var reply string
	defer func() {
		if len(reply) == 0 {
			return
		}
		for i, chunk := range splitMessage(reply) {
			p := &bot.SendMessageParams{
				ChatID:    chatID,
				Text:      chunk,
				ParseMode: models.ParseModeMarkdown,
				LinkPreviewOptions: &models.LinkPreviewOptions{
					IsDisabled: &True,
				},
			}
			if i == 0 {
				p.ReplyParameters = &models.ReplyParameters{
					MessageID: update.Message.ID,
				}
			}
			if _, err := c.bot.SendMessage(ctx, p); err != nil {
				// Handler output isn't always valid MarkdownV2. Retry the
				// reply without any markup before giving up.
				p.ParseMode = ""
				if _, err := c.bot.SendMessage(ctx, p); err != nil {
					status = err
					return
				}
			}
		}
	}()

	defer func() {
		if status != nil {
			reply = bot.EscapeMarkdown(status.Error())
			status = nil
		}
	}()

	cmd, args, cdata, err := c.getCommand(update)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("unrecognized command %q", cmd)
		}
		// Not a bot command. Ignore.
		return nil
	}
	if cdata.AdminOnly && !c.IsAdmin(chatID) {
		slog.Warn("unauthorized admin command (rejected)", "cmd", cmd, "chat", chatID)
		return fmt.Errorf("command %q is restricted to administrators", cmd)
	}

	var sb strings.Builder
	hctx := WithChatID(cli.WithStdout(ctx, &sb), chatID)
	if err := cdata.Handler(hctx, args); err != nil {
		slog.Error("could not handle user command (ignored)", "cmd", cmd, "chat", chatID, "err", err)
		return err
	}

	reply = sb.String()
	return nil
}

func (c *Client) uptime(ctx context.Context, args []string) error {
	stdout := cli.Stdout(ctx)
	const day = 24 * time.Hour
	d := time.Since(start)
	if d < day {
		fmt.Fprintf(stdout, "%v", time.Since(start))
		return nil
	}
	days := d / day
	fmt.Fprintf(stdout, "%dd%v", days, d%day)
	return nil
}

func (c *Client) version(ctx context.Context, _ []string) error {
	stdout := cli.Stdout(ctx)
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return fmt.Errorf("could not read build information")
	}
	// Do not print version information for the dependencies. It can overflow the
	// Telegram size limits.
	fmt.Fprintln(stdout, "Go: ", info.GoVersion)
	fmt.Fprintln(stdout, "Binary Path: ", info.Path)
	fmt.Fprintln(stdout, "Main Module Path: ", info.Main.Path)
	fmt.Fprintln(stdout, "Main Module Version: ", info.Main.Version)
	for _, s := range info.Settings {
		fmt.Fprintln(stdout, s.Key, ": ", s.Value)
	}
	return nil
}
