package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/mklimuk/onewire/cmd/onewire/console"
	"github.com/mklimuk/onewire/ds2482"
)

var errQuit = errors.New("quit")

const shellHelp = `commands:
  scan                  enumerate devices
  reset                 1-Wire bus reset
  master [-y]           reset the bridge
  status                print the status register
  config [apu|ppm|spu|overdrive]...
  read N                read N bytes
  write HEX...          write bytes
  select ROM            reset and address one device
  skip                  reset and address all devices
  bit [0|1]             read or write a single bit
  channel N             select a channel (DS2482-800)
  quit
`

var shellCompleter = readline.NewPrefixCompleter(
	readline.PcItem("scan"),
	readline.PcItem("reset"),
	readline.PcItem("master"),
	readline.PcItem("status"),
	readline.PcItem("config",
		readline.PcItem("apu"),
		readline.PcItem("ppm"),
		readline.PcItem("spu"),
		readline.PcItem("overdrive"),
	),
	readline.PcItem("read"),
	readline.PcItem("write"),
	readline.PcItem("select"),
	readline.PcItem("skip"),
	readline.PcItem("bit"),
	readline.PcItem("channel"),
	readline.PcItem("help"),
	readline.PcItem("quit"),
)

func shell(ctx context.Context, dev *ds2482.Dev, out io.Writer) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          fmt.Sprintf("%s %s> ", console.PictoChip, dev),
		AutoComplete:    shellCompleter,
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return err
	}
	defer func() { _ = rl.Close() }()
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		err = runShellCommand(ctx, dev, strings.Fields(line), out)
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			console.Errorf("%s", console.Red(err))
		}
	}
}

// runShellCommand executes one shell line split into words.
func runShellCommand(ctx context.Context, dev *ds2482.Dev, args []string, out io.Writer) error {
	if len(args) == 0 {
		return nil
	}
	cmd, rest := strings.ToLower(args[0]), args[1:]
	arg := func() (string, error) {
		if len(rest) == 0 {
			return "", fmt.Errorf("%s: missing argument", cmd)
		}
		return rest[0], nil
	}
	switch cmd {
	case "scan", "search":
		return scan(ctx, dev, out, false)
	case "reset":
		return busReset(ctx, dev, out)
	case "master":
		return masterReset(ctx, dev, out, len(rest) > 0 && rest[0] == "-y")
	case "status":
		return status(ctx, dev, out)
	case "config", "configure":
		return configure(ctx, dev, out, rest)
	case "read":
		n, err := arg()
		if err != nil {
			return err
		}
		return read(ctx, dev, out, n)
	case "write":
		return write(ctx, dev, out, rest)
	case "select":
		rom, err := arg()
		if err != nil {
			return err
		}
		return selectROM(ctx, dev, out, rom)
	case "skip":
		return skip(ctx, dev, out)
	case "bit":
		return bit(ctx, dev, out, rest)
	case "channel":
		ch, err := arg()
		if err != nil {
			return err
		}
		return channel(ctx, dev, ch)
	case "help", "?":
		_, _ = io.WriteString(out, shellHelp)
		return nil
	case "quit", "exit", "q":
		return errQuit
	default:
		return fmt.Errorf("unknown command %q, try help", cmd)
	}
}
