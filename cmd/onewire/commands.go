package main

import (
	"context"
	"errors"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/onewire/cmd/onewire/console"
	"github.com/mklimuk/onewire/ds2482"
)

// withBridge opens the bridge for the duration of one command.
func withBridge(action func(ctx context.Context, dev *ds2482.Dev, c *cli.Context) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		ctx, b, err := openBridge(c)
		if err != nil {
			return err
		}
		defer b.Close()
		if err := action(ctx, b.Dev, c); err != nil {
			var exerr cli.ExitCoder
			if errors.As(err, &exerr) {
				return err
			}
			return console.Exit(1, "%s: %s", b.Dev, console.Red(err))
		}
		return nil
	}
}

var scanCmd = cli.Command{
	Name:    "scan",
	Aliases: []string{"search"},
	Usage:   "enumerate the devices on the 1-Wire bus",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "yaml", Usage: "print results as YAML"},
		&cli.IntFlag{Name: "repeat", Aliases: []string{"n"}, Usage: "run this many enumeration passes and report the device count of each"},
	},
	Action: withBridge(func(ctx context.Context, dev *ds2482.Dev, c *cli.Context) error {
		passes := c.Int("repeat")
		if passes <= 1 {
			return scan(ctx, dev, console.Writer(), c.Bool("yaml"))
		}
		return repeatScan(ctx, dev, console.Writer(), passes)
	}),
}

var resetCmd = cli.Command{
	Name:  "reset",
	Usage: "reset the 1-Wire bus, or the bridge itself with --master",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "master", Usage: "reset the bridge state machine"},
		&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "do not ask for confirmation"},
	},
	Action: withBridge(func(ctx context.Context, dev *ds2482.Dev, c *cli.Context) error {
		if !c.Bool("master") {
			return busReset(ctx, dev, console.Writer())
		}
		return masterReset(ctx, dev, console.Writer(), c.Bool("yes"))
	}),
}

var statusCmd = cli.Command{
	Name:  "status",
	Usage: "print the bridge status register",
	Action: withBridge(func(ctx context.Context, dev *ds2482.Dev, c *cli.Context) error {
		return status(ctx, dev, console.Writer())
	}),
}

var configureCmd = cli.Command{
	Name:      "configure",
	Aliases:   []string{"config"},
	Usage:     "write the bridge configuration; options not named are turned off",
	ArgsUsage: "[apu] [ppm] [spu] [overdrive]",
	Action: withBridge(func(ctx context.Context, dev *ds2482.Dev, c *cli.Context) error {
		return configure(ctx, dev, console.Writer(), c.Args().Slice())
	}),
}

var readCmd = cli.Command{
	Name:      "read",
	Usage:     "read bytes from the 1-Wire bus",
	ArgsUsage: "COUNT",
	Action: withBridge(func(ctx context.Context, dev *ds2482.Dev, c *cli.Context) error {
		return read(ctx, dev, console.Writer(), c.Args().First())
	}),
}

var writeCmd = cli.Command{
	Name:      "write",
	Usage:     "write bytes to the 1-Wire bus",
	ArgsUsage: "HEX...",
	Action: withBridge(func(ctx context.Context, dev *ds2482.Dev, c *cli.Context) error {
		return write(ctx, dev, console.Writer(), c.Args().Slice())
	}),
}

var selectCmd = cli.Command{
	Name:      "select",
	Usage:     "reset the bus and address a single device",
	ArgsUsage: "ROM",
	Action: withBridge(func(ctx context.Context, dev *ds2482.Dev, c *cli.Context) error {
		return selectROM(ctx, dev, console.Writer(), c.Args().First())
	}),
}

var skipCmd = cli.Command{
	Name:  "skip",
	Usage: "reset the bus and address all devices",
	Action: withBridge(func(ctx context.Context, dev *ds2482.Dev, c *cli.Context) error {
		return skip(ctx, dev, console.Writer())
	}),
}

var bitCmd = cli.Command{
	Name:      "bit",
	Usage:     "read a single bit, or write one when a value is given",
	ArgsUsage: "[0|1]",
	Action: withBridge(func(ctx context.Context, dev *ds2482.Dev, c *cli.Context) error {
		return bit(ctx, dev, console.Writer(), c.Args().Slice())
	}),
}

var channelCmd = cli.Command{
	Name:      "channel",
	Usage:     "select a DS2482-800 channel",
	ArgsUsage: "N",
	Action: withBridge(func(ctx context.Context, dev *ds2482.Dev, c *cli.Context) error {
		return channel(ctx, dev, c.Args().First())
	}),
}

var shellCmd = cli.Command{
	Name:  "shell",
	Usage: "interactive 1-Wire session",
	Action: withBridge(func(ctx context.Context, dev *ds2482.Dev, c *cli.Context) error {
		return shell(ctx, dev, console.Writer())
	}),
}
