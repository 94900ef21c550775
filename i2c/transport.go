package i2c

import (
	"context"
	"fmt"
	"sync"

	"github.com/mklimuk/onewire"
)

var _ onewire.Transport = &AddressedTransport{}

// AddressedTransport adapts a bus that takes the peripheral address on every
// transfer to the select-then-transfer model of onewire.Transport.
type AddressedTransport struct {
	mx       sync.Mutex
	bus      onewire.I2CBus
	address  byte
	selected bool
}

func NewTransport(bus onewire.I2CBus) *AddressedTransport {
	return &AddressedTransport{bus: bus}
}

func (t *AddressedTransport) SelectDevice(ctx context.Context, address byte) error {
	if address > 0x7F {
		return fmt.Errorf("invalid 7-bit i2c address %#x", address)
	}
	t.mx.Lock()
	defer t.mx.Unlock()
	t.address = address
	t.selected = true
	return nil
}

func (t *AddressedTransport) Write(ctx context.Context, buffer []byte) (int, error) {
	address, err := t.current()
	if err != nil {
		return 0, err
	}
	if err := t.bus.WriteToAddr(ctx, address, buffer); err != nil {
		return 0, err
	}
	return len(buffer), nil
}

func (t *AddressedTransport) Read(ctx context.Context, buffer []byte) (int, error) {
	address, err := t.current()
	if err != nil {
		return 0, err
	}
	if err := t.bus.ReadFromAddr(ctx, address, buffer); err != nil {
		return 0, err
	}
	return len(buffer), nil
}

func (t *AddressedTransport) current() (byte, error) {
	t.mx.Lock()
	defer t.mx.Unlock()
	if !t.selected {
		return 0, fmt.Errorf("no i2c device selected")
	}
	return t.address, nil
}
