// Copyright (c) 2025 BVK Chaitanya

package subcmds

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/bvk/zenwatch/cli"
	"github.com/bvk/zenwatch/pushover"
	"github.com/bvk/zenwatch/server"
	"github.com/bvk/zenwatch/telegram"
	"golang.org/x/term"
)

type Setup struct {
	dataDir     string
	secretsPath string
	skipTesting bool
}

func (c *Setup) Synopsis() string {
	return "Setup prints and/or configures zenwatch daemon"
}

func (c *Setup) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("setup", flag.ContinueOnError)
	fset.StringVar(&c.dataDir, "data-dir", "", "path to the data directory")
	fset.StringVar(&c.secretsPath, "secrets-file", "", "path to credentials file")
	fset.BoolVar(&c.skipTesting, "skip-testing", false, "don't test the parameters")
	return fset, cli.CmdFunc(c.run)
}

func (c *Setup) CommandHelp() string {
	return `

Command "setup" helps users configure the Telegram bot token and notification
keys for the Pushover service. Command prints current config when run without
any arguments.

TELEGRAM PARAMETERS

The Telegram bot token and administrator chat ids are required to run the
watch service. They can be configured as follows:

  $ zenwatch setup telegram-token=111111:awja5ue...ito7svf telegram-admins=2222222222,3333333333

A secret value can be left off the command-line by passing just the key name
(eg: "telegram-token"), in which case it is read from the terminal without
echo.

PUSHOVER PARAMETERS

Pushover keys are optional. They enable fallback alerts to the administrators
when Telegram is unreachable. They can be configured as follows:

  $ zenwatch setup pushover-app=awja5ue...ito7svf pushover-user=uscjs2...tvp4kv
`
}

func (c *Setup) run(ctx context.Context, args []string) error {
	if len(c.dataDir) == 0 {
		c.dataDir = filepath.Join(os.Getenv("HOME"), ".zenwatch")
	}
	if _, err := os.Stat(c.dataDir); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("could not stat data directory %q: %w", c.dataDir, err)
		}
		if len(args) == 0 {
			return fmt.Errorf("zenwatch is not configured")
		}
		if err := os.MkdirAll(c.dataDir, 0700); err != nil {
			return fmt.Errorf("could not create data directory %q: %w", c.dataDir, err)
		}
	}
	dataDir, err := filepath.Abs(c.dataDir)
	if err != nil {
		return fmt.Errorf("could not determine data-dir %q absolute path: %w", c.dataDir, err)
	}

	if len(c.secretsPath) == 0 {
		c.secretsPath = filepath.Join(dataDir, "secrets.json")
	}
	secrets, err := server.SecretsFromFile(c.secretsPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		if len(args) == 0 {
			return fmt.Errorf("zenwatch is not configured")
		}
	}

	if len(args) == 0 {
		js, _ := json.MarshalIndent(secrets, "", "  ")
		fmt.Printf("%s\n", js)
		return nil
	}

	if secrets == nil {
		secrets = &server.Secrets{}
	}

	validKeys := []string{"telegram-token", "telegram-admins", "pushover-app", "pushover-user"}
	kvMap := make(map[string]string)
	// Parse config values from the command-line.
	for _, arg := range args {
		before, after, found := strings.Cut(arg, "=")
		if !slices.Contains(validKeys, before) {
			return fmt.Errorf("invalid/unrecognized config item key %q", before)
		}
		if !found {
			// Secret values can be given as a bare key name, in which case
			// they are read from the terminal to keep them out of the shell
			// history.
			fmt.Printf("%s: ", before)
			data, err := term.ReadPassword(int(os.Stdin.Fd()))
			fmt.Println()
			if err != nil {
				return fmt.Errorf("could not read %q value from the terminal: %w", before, err)
			}
			after = string(data)
		}
		if v, ok := kvMap[before]; ok && v != after {
			return fmt.Errorf("config item key %q is found with different values", before)
		}
		kvMap[before] = after
	}

	telegramToken := kvMap["telegram-token"]
	telegramAdmins := kvMap["telegram-admins"]
	if len(telegramToken) != 0 || len(telegramAdmins) != 0 {
		if len(telegramToken) == 0 || len(telegramAdmins) == 0 {
			return fmt.Errorf(`both "telegram-token" and "telegram-admins" parameters are required`)
		}
		var adminIDs []int64
		for _, f := range strings.Split(telegramAdmins, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(f), 10, 64)
			if err != nil {
				return fmt.Errorf("invalid admin chat id %q: %w", f, err)
			}
			adminIDs = append(adminIDs, id)
		}
		secrets.Telegram = &telegram.Secrets{
			BotToken: telegramToken,
			AdminIDs: adminIDs,
		}
		if !c.skipTesting {
			// Attempt to authenticate with telegram to validate the token.
			client, err := telegram.New(ctx, secrets.Telegram)
			if err != nil {
				return err
			}
			if err := client.SendMessage(ctx, time.Now(), "Test message from zenwatch config setup; please ignore."); err != nil {
				client.Close()
				return err
			}
			client.Close()
		}
	}

	pushoverApp := kvMap["pushover-app"]
	pushoverUser := kvMap["pushover-user"]
	if len(pushoverUser) != 0 || len(pushoverApp) != 0 {
		if len(pushoverApp) == 0 || len(pushoverUser) == 0 {
			return fmt.Errorf(`both "pushover-app" and "pushover-user" parameters are required`)
		}
		secrets.Pushover = &pushover.Keys{
			ApplicationKey: pushoverApp,
			UserKey:        pushoverUser,
		}
		if !c.skipTesting {
			// Attempt to authenticate with pushover to validate the keys.
			client, err := pushover.New(secrets.Pushover)
			if err != nil {
				return err
			}
			if err := client.SendMessage(ctx, time.Now(), "Test message from Pushover config setup; please ignore."); err != nil {
				return err
			}
		}
	}

	js, err := json.MarshalIndent(secrets, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(c.secretsPath, js, os.FileMode(0600)); err != nil {
		return err
	}
	return nil
}
