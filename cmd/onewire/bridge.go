package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"
	"gobot.io/x/gobot/v2/platforms/friendlyelec/nanopi"

	"github.com/mklimuk/onewire"
	"github.com/mklimuk/onewire/adapter"
	"github.com/mklimuk/onewire/cmd/onewire/console"
	"github.com/mklimuk/onewire/ds2482"
	"github.com/mklimuk/onewire/i2c"
	"github.com/mklimuk/onewire/wirectx"
)

// bridge is an opened DS2482 together with whatever has to be released
// after use.
type bridge struct {
	*ds2482.Dev
	closers []func() error
}

func (b *bridge) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			console.Errorf("error closing bridge: %s", console.Red(err))
		}
	}
}

// openBridge builds the transport selected by the global flags and attaches
// a DS2482 engine to it.
func openBridge(c *cli.Context) (context.Context, *bridge, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, console.Exit(1, "configuration error: %s", console.Red(err))
	}
	ctx := wirectx.SetTrace(c.Context, cfg.Trace)
	opts, err := cfg.options()
	if err != nil {
		return nil, nil, console.Exit(1, "configuration error: %s", console.Red(err))
	}
	b := &bridge{}
	t, err := openTransport(cfg, b)
	if err != nil {
		b.Close()
		return nil, nil, console.Exit(1, "adapter initialization error: %s", console.Red(err))
	}
	b.Dev = ds2482.New(t, cfg.Address, opts...)
	slog.Debug("bridge opened", "adapter", cfg.Adapter, "bus", cfg.Bus, "bridge", b.Dev.String())
	return ctx, b, nil
}

func openTransport(cfg Config, b *bridge) (onewire.Transport, error) {
	switch cfg.Adapter {
	case "i2cdev":
		path := cfg.Bus
		if !strings.HasPrefix(path, "/") {
			n, err := cfg.busNumber(1)
			if err != nil {
				return nil, err
			}
			path = i2c.DevicePath(n)
		}
		f, err := i2c.OpenDevFile(path)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, f.Close)
		return f, nil
	case "periph":
		bus, err := i2c.NewGenericBus(cfg.Bus)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, bus.Close)
		return i2c.NewTransport(bus), nil
	case "gobot", "nanopi":
		n, err := cfg.busNumber(-1)
		if err != nil {
			return nil, err
		}
		npi := nanopi.NewNeoAdaptor()
		if err := npi.Connect(); err != nil {
			return nil, fmt.Errorf("adaptor connect error: %w", err)
		}
		b.closers = append(b.closers, npi.Finalize)
		bus := i2c.NewGobotBus(npi, n)
		b.closers = append(b.closers, bus.Close)
		return bus, nil
	case "mcp2221":
		n, err := cfg.busNumber(0)
		if err != nil {
			return nil, err
		}
		return i2c.NewTransport(adapter.NewMCP2221(adapter.WithIndex(n))), nil
	case "sim":
		sim := ds2482.NewSimulator(cfg.Sim.ROMs...)
		sim.Address = 0x18 | cfg.Address&0x03
		sim.BusyPolls = cfg.Sim.BusyPolls
		return sim, nil
	default:
		return nil, fmt.Errorf("unknown adapter %q", cfg.Adapter)
	}
}

func parseBit(s string) (bool, error) {
	switch s {
	case "0":
		return false, nil
	case "1":
		return true, nil
	}
	return false, fmt.Errorf("invalid bit %q: expected 0 or 1", s)
}

func parseCount(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid byte count %q", s)
	}
	return n, nil
}
