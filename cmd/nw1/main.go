package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	pageSize := &cli.IntFlag{
		Name:  "page-size",
		Value: 1024,
		Usage: "page size the store was created with",
	}
	return &cli.App{
		Name:  "nw1",
		Usage: "inspects and backs up nw1 world stores",
		Flags: []cli.Flag{pageSize},
		Commands: []*cli.Command{
			{
				Name:      "info",
				Usage:     "print store geometry",
				ArgsUsage: "<world.nw1>",
				Action:    infoCmd,
			},
			{
				Name:      "ls",
				Usage:     "list directory entries",
				ArgsUsage: "<world.nw1>",
				Action:    lsCmd,
			},
			{
				Name:      "show",
				Usage:     "print the sections of one chunk",
				ArgsUsage: "<world.nw1> <cx> <cz>",
				Action:    showCmd,
			},
			{
				Name:      "check",
				Usage:     "walk every chain and report page usage",
				ArgsUsage: "<world.nw1>",
				Action:    checkCmd,
			},
			{
				Name:      "backup",
				Usage:     "write a zstd compressed copy of a store",
				ArgsUsage: "<world.nw1> <backup.zst>",
				Action:    backupCmd,
			},
			{
				Name:      "restore",
				Usage:     "restore a store from a backup",
				ArgsUsage: "<backup.zst> <world.nw1>",
				Action:    restoreCmd,
			},
		},
	}
}
