// Copyright (c) 2023 BVK Chaitanya

package watch

import (
	"context"
	"flag"
	"fmt"
	"strconv"

	"github.com/bvk/zenwatch/api"
	"github.com/bvk/zenwatch/cli"
	"github.com/bvk/zenwatch/subcmds/cmdutil"
)

type Remove struct {
	cmdutil.ClientFlags
}

func (c *Remove) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("remove", flag.ContinueOnError)
	c.ClientFlags.SetFlags(fset)
	return fset, cli.CmdFunc(c.run)
}

func (c *Remove) Synopsis() string {
	return "Removes a watch with the given id"
}

func (c *Remove) run(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("this command takes the watch id as the only argument")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("could not parse watch id %q: %w", args[0], err)
	}

	req := &api.WatchRemoveRequest{
		ID: id,
	}
	if _, err := cmdutil.Post[api.WatchRemoveResponse](ctx, &c.ClientFlags, api.WatchRemovePath, req); err != nil {
		return err
	}
	return nil
}
