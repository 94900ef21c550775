package i2c

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mklimuk/onewire"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

var _ onewire.I2CBus = &GenericBus{}

// DefaultFrequency is the standard-mode clock every DS2482 variant supports.
const DefaultFrequency = 100 * physic.KiloHertz

type BusOpts struct {
	// Frequency of the bus clock; zero leaves the host setting untouched.
	Frequency physic.Frequency
}

type BusOption func(*BusOpts)

func WithFrequency(f physic.Frequency) BusOption {
	return func(o *BusOpts) {
		o.Frequency = f
	}
}

// GenericBus is an I2C bus opened through the periph.io host drivers. The
// bridge only issues plain writes and plain reads, never a combined
// write-then-read, so every transfer is a single one-directional Tx.
type GenericBus struct {
	bus i2c.BusCloser
}

// NewGenericBus opens the named bus ("" selects the first one available) and
// sets its clock.
func NewGenericBus(name string, opts ...BusOption) (*GenericBus, error) {
	config := BusOpts{Frequency: DefaultFrequency}
	for _, opt := range opts {
		opt(&config)
	}
	state, err := host.Init()
	if err != nil {
		return nil, fmt.Errorf("could not init periph host: %w", err)
	}
	for _, driver := range state.Loaded {
		slog.Debug("periph driver loaded", "driver", driver.String())
	}
	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("could not open i2c bus %q: %w", name, err)
	}
	return newGenericBus(bus, config)
}

func newGenericBus(bus i2c.BusCloser, config BusOpts) (*GenericBus, error) {
	if config.Frequency > 0 {
		if err := bus.SetSpeed(config.Frequency); err != nil {
			_ = bus.Close()
			return nil, fmt.Errorf("could not set %s clock to %s: %w", bus, config.Frequency, err)
		}
	}
	return &GenericBus{bus: bus}, nil
}

func (b *GenericBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	if err := b.tx(address, nil, buffer); err != nil {
		return fmt.Errorf("could not read from i2c device %#x: %w", address, err)
	}
	trace(ctx, "read", address, buffer)
	return nil
}

func (b *GenericBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	trace(ctx, "write", address, buffer)
	if err := b.tx(address, buffer, nil); err != nil {
		return fmt.Errorf("could not write to i2c device %#x: %w", address, err)
	}
	return nil
}

func (b *GenericBus) tx(address byte, w, r []byte) error {
	if address > 0x7F {
		return fmt.Errorf("invalid 7-bit address")
	}
	return b.bus.Tx(uint16(address), w, r)
}

// Release is a no-op: periph transfers do not leave the bus held.
func (b *GenericBus) Release(ctx context.Context) error {
	return nil
}

func (b *GenericBus) String() string {
	return b.bus.String()
}

func (b *GenericBus) Close() error {
	return b.bus.Close()
}
