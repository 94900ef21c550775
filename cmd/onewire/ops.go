package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mklimuk/onewire"
	"github.com/mklimuk/onewire/cmd/onewire/console"
	"github.com/mklimuk/onewire/ds2482"
)

type scanResult struct {
	ROM    onewire.ROM `yaml:"rom"`
	Family string      `yaml:"family"`
	Valid  bool        `yaml:"valid"`
}

// scan enumerates the bus from the first device.
func scan(ctx context.Context, dev *ds2482.Dev, out io.Writer, asYAML bool) error {
	roms, err := dev.SearchAll(ctx)
	if err != nil {
		return fmt.Errorf("search failed after %d devices: %w", len(roms), err)
	}
	if dev.TimedOut() {
		console.Warnf("bridge stayed busy during the search, results may be incomplete")
	}
	if asYAML {
		results := make([]scanResult, 0, len(roms))
		for _, rom := range roms {
			results = append(results, scanResult{ROM: rom, Family: fmt.Sprintf("0x%02x", rom.Family()), Valid: rom.Valid()})
		}
		return yaml.NewEncoder(out).Encode(results)
	}
	if len(roms) == 0 {
		_, _ = fmt.Fprintf(out, "%s no devices found\n", console.PictoGhost)
		return nil
	}
	for _, rom := range roms {
		_, _ = fmt.Fprintf(out, "%s %s family %s %s\n", console.PictoDevice, console.White(rom),
			console.Cyan(fmt.Sprintf("0x%02x", rom.Family())), console.Check(rom.Valid(), "crc ok", "crc error"))
	}
	return nil
}

// repeatScan runs several enumeration passes, reporting failed passes and
// carrying on with the next one.
func repeatScan(ctx context.Context, dev *ds2482.Dev, out io.Writer, passes int) error {
	failed := 0
	for i := 1; i <= passes; i++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		roms, err := dev.SearchAll(ctx)
		if err != nil {
			failed++
			console.Errorf("pass %d failed after %d devices: %s", i, len(roms), console.Red(err))
			continue
		}
		_, _ = fmt.Fprintf(out, "%s pass %d: %d devices\n", console.PictoSearch, i, len(roms))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d passes failed", failed, passes)
	}
	return nil
}

// confirm is replaced in tests.
var confirm = console.Confirm

func masterReset(ctx context.Context, dev *ds2482.Dev, out io.Writer, force bool) error {
	if !force {
		ok, err := confirm("reset the bridge and clear its configuration?")
		if err != nil {
			return err
		}
		if !ok {
			_, _ = fmt.Fprintf(out, "%s aborted\n", console.PictoStop)
			return nil
		}
	}
	if err := dev.ResetMaster(ctx); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "%s %s reset\n", console.PictoChip, console.White(dev))
	return nil
}

func busReset(ctx context.Context, dev *ds2482.Dev, out io.Writer) error {
	present, err := dev.BusReset(ctx)
	if err != nil {
		return err
	}
	if present {
		_, _ = fmt.Fprintf(out, "%s presence detected\n", console.PictoDevice)
	} else {
		_, _ = fmt.Fprintf(out, "%s no presence pulse\n", console.PictoGhost)
	}
	return nil
}

func status(ctx context.Context, dev *ds2482.Dev, out io.Writer) error {
	st, err := dev.ReadStatus(ctx)
	if err != nil {
		return err
	}
	return yaml.NewEncoder(out).Encode(st)
}

// parseConfig turns flag names into a configuration value. No names means
// every option off.
func parseConfig(names []string) (ds2482.Config, error) {
	var cfg ds2482.Config
	for _, name := range names {
		switch strings.ToLower(name) {
		case "apu":
			cfg |= ds2482.ConfigActivePullup
		case "ppm":
			cfg |= ds2482.ConfigPresenceMask
		case "spu":
			cfg |= ds2482.ConfigStrongPullup
		case "1ws", "overdrive":
			cfg |= ds2482.ConfigOverdrive
		default:
			return 0, fmt.Errorf("unknown configuration option %q", name)
		}
	}
	return cfg, nil
}

func configure(ctx context.Context, dev *ds2482.Dev, out io.Writer, names []string) error {
	cfg, err := parseConfig(names)
	if err != nil {
		return err
	}
	if err := dev.Configure(ctx, cfg); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "%s configuration 0x%02x applied\n", console.PictoChip, byte(cfg))
	return nil
}

// parseHex accepts bytes written as one hex string or as separate words,
// each optionally prefixed with 0x.
func parseHex(words []string) ([]byte, error) {
	var b strings.Builder
	for _, w := range words {
		for _, part := range strings.FieldsFunc(w, func(r rune) bool { return r == ' ' || r == ',' || r == ':' }) {
			part = strings.TrimPrefix(strings.ToLower(part), "0x")
			if len(part)%2 == 1 {
				part = "0" + part
			}
			b.WriteString(part)
		}
	}
	if b.Len() == 0 {
		return nil, fmt.Errorf("no data to write")
	}
	data, err := hex.DecodeString(b.String())
	if err != nil {
		return nil, fmt.Errorf("invalid hex data: %w", err)
	}
	return data, nil
}

func read(ctx context.Context, dev *ds2482.Dev, out io.Writer, count string) error {
	n, err := parseCount(count)
	if err != nil {
		return err
	}
	data := make([]byte, n)
	if err := dev.Read(ctx, data); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "%s\n", hex.EncodeToString(data))
	return nil
}

func write(ctx context.Context, dev *ds2482.Dev, out io.Writer, words []string) error {
	data, err := parseHex(words)
	if err != nil {
		return err
	}
	if err := dev.Write(ctx, data); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "%d bytes written\n", len(data))
	return nil
}

func selectROM(ctx context.Context, dev *ds2482.Dev, out io.Writer, s string) error {
	rom, err := onewire.ParseROM(s)
	if err != nil {
		return err
	}
	present, err := dev.BusReset(ctx)
	if err != nil {
		return err
	}
	if !present {
		return ds2482.ErrNoDevice
	}
	if err := dev.Select(ctx, rom); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "%s %s selected\n", console.PictoDevice, console.White(rom))
	return nil
}

func skip(ctx context.Context, dev *ds2482.Dev, out io.Writer) error {
	present, err := dev.BusReset(ctx)
	if err != nil {
		return err
	}
	if !present {
		return ds2482.ErrNoDevice
	}
	if err := dev.Skip(ctx); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "all devices selected\n")
	return nil
}

// bit reads a time slot when no value is given and writes one otherwise.
func bit(ctx context.Context, dev *ds2482.Dev, out io.Writer, args []string) error {
	if len(args) == 0 {
		v, err := dev.ReadBit(ctx)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "%d\n", boolToInt(v))
		return nil
	}
	v, err := parseBit(args[0])
	if err != nil {
		return err
	}
	return dev.WriteBit(ctx, v)
}

func channel(ctx context.Context, dev *ds2482.Dev, s string) error {
	ch, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid channel %q", s)
	}
	return dev.SelectChannel(ctx, ch)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
