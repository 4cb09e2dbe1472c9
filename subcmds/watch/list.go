// Copyright (c) 2023 BVK Chaitanya

package watch

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"

	"github.com/bvk/zenwatch/api"
	"github.com/bvk/zenwatch/cli"
	"github.com/bvk/zenwatch/subcmds/cmdutil"
)

type List struct {
	cmdutil.ClientFlags

	chatID int64
}

func (c *List) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("list", flag.ContinueOnError)
	c.ClientFlags.SetFlags(fset)
	fset.Int64Var(&c.chatID, "chat-id", 0, "when non-zero, lists only this subscriber's watches")
	return fset, cli.CmdFunc(c.run)
}

func (c *List) Synopsis() string {
	return "Prints active watches"
}

func (c *List) run(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("this command takes no arguments")
	}

	req := &api.WatchListRequest{
		ChatID: c.chatID,
	}
	resp, err := cmdutil.Post[api.WatchListResponse](ctx, &c.ClientFlags, api.WatchListPath, req)
	if err != nil {
		return err
	}
	jsdata, _ := json.MarshalIndent(resp, "", "  ")
	fmt.Printf("%s\n", jsdata)
	return nil
}
