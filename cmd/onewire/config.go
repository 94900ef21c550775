package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/onewire"
	"github.com/mklimuk/onewire/ds2482"
)

// Config describes the bridge to open. It is read from the --config file and
// overridden by explicitly set flags.
type Config struct {
	Adapter      string        `yaml:"adapter"`
	Bus          string        `yaml:"bus"`
	Address      byte          `yaml:"address"`
	Variant      string        `yaml:"variant"`
	PollLimit    int           `yaml:"poll_limit"`
	PollInterval time.Duration `yaml:"poll_interval"`
	Trace        bool          `yaml:"trace"`
	Sim          SimConfig     `yaml:"sim"`
}

type SimConfig struct {
	ROMs      []onewire.ROM `yaml:"roms"`
	BusyPolls int           `yaml:"busy_polls"`
}

func defaultConfig() Config {
	return Config{
		Adapter:      "i2cdev",
		Bus:          "1",
		Variant:      "100",
		PollLimit:    ds2482.DefaultPollLimit,
		PollInterval: ds2482.DefaultPollInterval,
		Sim:          SimConfig{BusyPolls: 1},
	}
}

var globalFlags = []cli.Flag{
	&cli.BoolFlag{
		Name:  "verbose",
		Usage: "enable verbose logging",
	},
	&cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "YAML configuration file",
		EnvVars: []string{"ONEWIRE_CONFIG"},
	},
	&cli.StringFlag{
		Name:    "adapter",
		Aliases: []string{"a"},
		Usage:   "transport to the bridge: i2cdev, periph, gobot, mcp2221 or sim",
		Value:   "i2cdev",
		EnvVars: []string{"ONEWIRE_ADAPTER"},
	},
	&cli.StringFlag{
		Name:    "bus",
		Aliases: []string{"b"},
		Usage:   "bus number or device path (i2cdev, periph, gobot), adapter index (mcp2221)",
		Value:   "1",
	},
	&cli.UintFlag{
		Name:  "address",
		Usage: "bridge address pins AD1:AD0 (0-3)",
	},
	&cli.StringFlag{
		Name:  "variant",
		Usage: "bridge variant: 100 or 800",
		Value: "100",
	},
	&cli.IntFlag{
		Name:  "poll-limit",
		Usage: "status reads before a busy wait gives up",
		Value: ds2482.DefaultPollLimit,
	},
	&cli.DurationFlag{
		Name:  "poll-interval",
		Usage: "pause between status reads",
		Value: ds2482.DefaultPollInterval,
	},
	&cli.BoolFlag{
		Name:  "trace",
		Usage: "dump every i2c transfer (needs --verbose)",
	},
	&cli.StringSliceFlag{
		Name:  "sim-rom",
		Usage: "ROM code of a simulated device (sim adapter)",
	},
}

func loadConfig(c *cli.Context) (Config, error) {
	cfg := defaultConfig()
	if path := c.String("config"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("could not read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("could not parse config %s: %w", path, err)
		}
	}
	if c.IsSet("adapter") {
		cfg.Adapter = c.String("adapter")
	}
	if c.IsSet("bus") {
		cfg.Bus = c.String("bus")
	}
	if c.IsSet("address") {
		cfg.Address = byte(c.Uint("address"))
	}
	if c.IsSet("variant") {
		cfg.Variant = c.String("variant")
	}
	if c.IsSet("poll-limit") {
		cfg.PollLimit = c.Int("poll-limit")
	}
	if c.IsSet("poll-interval") {
		cfg.PollInterval = c.Duration("poll-interval")
	}
	if c.IsSet("trace") {
		cfg.Trace = c.Bool("trace")
	}
	if c.IsSet("sim-rom") {
		cfg.Sim.ROMs = nil
		for _, s := range c.StringSlice("sim-rom") {
			rom, err := onewire.ParseROM(s)
			if err != nil {
				return cfg, err
			}
			cfg.Sim.ROMs = append(cfg.Sim.ROMs, rom)
		}
	}
	if cfg.Address > 3 {
		return cfg, fmt.Errorf("invalid bridge address %d: expected 0-3", cfg.Address)
	}
	return cfg, nil
}

func (cfg Config) options() ([]ds2482.Option, error) {
	opts := []ds2482.Option{
		ds2482.WithPollLimit(cfg.PollLimit),
		ds2482.WithPollInterval(cfg.PollInterval),
	}
	switch cfg.Variant {
	case "", "100":
		opts = append(opts, ds2482.WithVariant(ds2482.DS2482_100))
	case "800":
		opts = append(opts, ds2482.WithVariant(ds2482.DS2482_800))
	default:
		return nil, fmt.Errorf("unknown variant %q", cfg.Variant)
	}
	return opts, nil
}

// busNumber parses cfg.Bus as a number, returning def when it is empty.
func (cfg Config) busNumber(def int) (int, error) {
	if cfg.Bus == "" {
		return def, nil
	}
	n, err := strconv.Atoi(cfg.Bus)
	if err != nil {
		return 0, fmt.Errorf("invalid bus number %q: %w", cfg.Bus, err)
	}
	return n, nil
}
