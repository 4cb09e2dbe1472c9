// Copyright (c) 2023 BVK Chaitanya

// Package watch implements subcommands to manage watches over the
// zenwatch service api.
package watch

import (
	"context"
	"flag"
	"fmt"

	"github.com/bvk/zenwatch/api"
	"github.com/bvk/zenwatch/cli"
	"github.com/bvk/zenwatch/subcmds/cmdutil"
	"github.com/shopspring/decimal"
)

type Add struct {
	cmdutil.ClientFlags

	chatID    int64
	platform  string
	sortOrder string

	maxPrice       string
	maxMinutesLeft int64
}

func (c *Add) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("add", flag.ContinueOnError)
	c.ClientFlags.SetFlags(fset)
	fset.Int64Var(&c.chatID, "chat-id", 0, "telegram chat id receiving the notifications")
	fset.StringVar(&c.platform, "platform", "mercari", "marketplace platform (mercari, rakuten or yahoo)")
	fset.StringVar(&c.sortOrder, "sort-order", "", "platform specific sort order (platform default when empty)")
	fset.StringVar(&c.maxPrice, "max-price", "", "maximum item price in JPY")
	fset.Int64Var(&c.maxMinutesLeft, "max-minutes-left", 0, "notify only for auctions ending within this many minutes")
	return fset, cli.CmdFunc(c.run)
}

func (c *Add) Synopsis() string {
	return "Creates a new watch for a marketplace query"
}

func (c *Add) run(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("this command takes the search query as the only argument")
	}
	maxPrice, err := decimal.NewFromString(c.maxPrice)
	if err != nil {
		return fmt.Errorf("could not parse max-price value %q: %w", c.maxPrice, err)
	}

	req := &api.WatchAddRequest{
		ChatID:         c.chatID,
		Platform:       c.platform,
		Query:          args[0],
		SortOrder:      c.sortOrder,
		MaxPrice:       maxPrice,
		MaxMinutesLeft: c.maxMinutesLeft,
	}
	resp, err := cmdutil.Post[api.WatchAddResponse](ctx, &c.ClientFlags, api.WatchAddPath, req)
	if err != nil {
		return err
	}
	fmt.Printf("%d\n", resp.ID)
	return nil
}
