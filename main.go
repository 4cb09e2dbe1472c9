// Copyright (c) 2025 BVK Chaitanya

package main

import (
	"context"
	"log"
	"os"

	"github.com/bvk/zenwatch/cli"
	"github.com/bvk/zenwatch/subcmds"
	"github.com/bvk/zenwatch/subcmds/db"
	"github.com/bvk/zenwatch/subcmds/watch"
)

func main() {
	watchCmds := []cli.Command{
		new(watch.Add),
		new(watch.List),
		new(watch.Remove),
	}

	dbCmds := []cli.Command{
		new(db.Get),
		new(db.Set),
		new(db.Edit),
		new(db.Delete),
		new(db.List),
		new(db.Backup),
		new(db.Restore),
	}

	cmds := []cli.Command{
		new(subcmds.Run),
		new(subcmds.Status),
		new(subcmds.Setup),
		cli.CommandGroup("watch", "Manage marketplace watches", watchCmds...),
		cli.CommandGroup("db", "View/update database directly", dbCmds...),
	}
	if err := cli.Run(context.Background(), cmds, os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}
