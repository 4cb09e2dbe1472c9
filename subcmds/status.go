// Copyright (c) 2023 BVK Chaitanya

package subcmds

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/bvk/zenwatch/api"
	"github.com/bvk/zenwatch/cli"
	"github.com/bvk/zenwatch/subcmds/cmdutil"
)

type Status struct {
	cmdutil.ClientFlags
}

func (c *Status) Synopsis() string {
	return "Status prints a summary of the zenwatch service"
}

func (c *Status) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("status", flag.ContinueOnError)
	c.ClientFlags.SetFlags(fset)
	return fset, cli.CmdFunc(c.run)
}

func (c *Status) run(ctx context.Context, args []string) error {
	resp, err := cmdutil.Post[api.StatusResponse](ctx, &c.ClientFlags, api.StatusPath, &api.StatusRequest{})
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintf(tw, "Uptime:\t%s\n", time.Since(resp.StartTime).Round(time.Second))
	fmt.Fprintf(tw, "Watches:\t%d\n", resp.NumWatches)
	if resp.NumMalformed > 0 {
		fmt.Fprintf(tw, "Malformed records:\t%d\n", resp.NumMalformed)
	}
	fmt.Fprintf(tw, "Subscribers:\t%d\n", resp.NumSubscribers)
	fmt.Fprintf(tw, "Cycles:\t%d\n", resp.NumCycles)
	fmt.Fprintf(tw, "Cycle aborts:\t%d\n", resp.NumCycleAborts)
	fmt.Fprintf(tw, "Notifications:\t%d\n", resp.NumNotifications)
	fmt.Fprintf(tw, "Watch removals:\t%d\n", resp.NumWatchRemovals)
	if !resp.LastCycleTime.IsZero() {
		fmt.Fprintf(tw, "Last cycle:\t%s ago\n", time.Since(resp.LastCycleTime).Round(time.Second))
		fmt.Fprintf(tw, "Last cycle aborted:\t%t\n", resp.LastCycleAborted)
	}
	fmt.Fprintf(tw, "Goroutines:\t%d\n", resp.NumGoroutines)
	if resp.RSS > 0 {
		fmt.Fprintf(tw, "Memory (RSS):\t%d MiB\n", resp.RSS/(1<<20))
	}
	if resp.CPUPercent > 0 {
		fmt.Fprintf(tw, "CPU:\t%.1f%%\n", resp.CPUPercent)
	}
	return nil
}
