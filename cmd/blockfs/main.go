/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Tue Mar 12 09:05:37 2019 mstenber
 * Last modified: Thu Mar 14 17:20:52 2019 mstenber
 * Edit time:     35 min
 *
 */

package main

import (
	"fmt"
	"log"
	"os"

	"github.com/fingon/go-blockfs/fs"
	"github.com/fingon/go-blockfs/util"
	"github.com/urfave/cli/v2"
)

func loadConfig(ctx *cli.Context) (*Config, error) {
	c, err := LoadConfig(ctx.String("config"))
	if err != nil {
		return nil, err
	}
	if ctx.IsSet("dir") {
		c.Directory = ctx.String("dir")
	}
	if ctx.IsSet("name") {
		c.Name = ctx.String("name")
	}
	if ctx.IsSet("size") {
		c.Size = ctx.Int64("size")
	}
	if ctx.IsSet("device") {
		c.Device = ctx.String("device")
	}
	if ctx.IsSet("codec") {
		c.Codec = ctx.String("codec")
	}
	if ctx.IsSet("password") {
		c.Password = ctx.String("password")
	}
	return c, nil
}

// withFs opens the image for the duration of the action.
func withFs(f func(myfs *fs.Fs, ctx *cli.Context) error) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		c, err := loadConfig(ctx)
		if err != nil {
			return cli.Exit(err.Error(), 2)
		}
		myfs, err := c.Open()
		if err != nil {
			return cli.Exit(err.Error(), 2)
		}
		defer myfs.Close()
		if cwd := ctx.String("cwd"); cwd != "" {
			if err := myfs.ChangeDir(cwd); err != nil {
				return cli.Exit(err.Error(), 1)
			}
		}
		return f(myfs, ctx)
	}
}

func dispatchCommand(name string) cli.ActionFunc {
	return withFs(func(myfs *fs.Fs, ctx *cli.Context) error {
		args := append([]string{name}, ctx.Args().Slice()...)
		if err := Dispatch(myfs, os.Stdout, args); err != nil {
			return cli.Exit(err.Error(), 1)
		}
		return nil
	})
}

func main() {
	app := cli.App{
		Name:  "blockfs",
		Usage: "operate on a blockfs image",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "yaml configuration file"},
			&cli.StringFlag{Name: "dir", Usage: "directory of the image"},
			&cli.StringFlag{Name: "name", Usage: "name of the image within dir"},
			&cli.Int64Flag{Name: "size", Usage: "size of a new image in bytes"},
			&cli.StringFlag{Name: "device", Usage: "device to use for the image"},
			&cli.StringFlag{Name: "codec", Usage: "codec for chunked devices"},
			&cli.StringFlag{Name: "password", Usage: "password for the codec"},
			&cli.StringFlag{Name: "cwd", Usage: "working directory within the image"},
		},
		Commands: []*cli.Command{{
			Name:  "shell",
			Usage: "read commands from standard input",
			Flags: []cli.Flag{
				&cli.BoolFlag{Name: "prompt", Usage: "print prompt before each command"},
			},
			Action: withFs(func(myfs *fs.Fs, ctx *cli.Context) error {
				if ctx.Bool("prompt") {
					u := myfs.UsageSummary()
					fmt.Printf("blockfs %s image, %d blocks available\n",
						util.ReadableSize(u.ImageSize), u.AvailableBlocks)
				}
				return Shell(myfs, os.Stdin, os.Stdout, ctx.Bool("prompt"))
			}),
		}},
	}
	for _, name := range commandNames() {
		if name == "exit" || name == "cd" {
			continue
		}
		c := commands[name]
		app.Commands = append(app.Commands, &cli.Command{
			Name:            name,
			Usage:           c.help,
			UsageText:       c.usage,
			SkipFlagParsing: true,
			Action:          dispatchCommand(name),
		})
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
