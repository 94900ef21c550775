package i2c

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mklimuk/onewire"
	"gobot.io/x/gobot/v2/drivers/i2c"
)

var _ onewire.Transport = &GobotBus{}

// GobotBus talks to i2c peripherals through a gobot adaptor (e.g. a nanopi or
// raspi board). One gobot connection is opened per selected address and kept
// until Close.
type GobotBus struct {
	mx        sync.Mutex
	connector i2c.Connector
	busNr     int
	conns     map[byte]i2c.Connection
	current   i2c.Connection
	address   byte
}

// NewGobotBus uses bus busNr of the connector; a negative busNr selects the adaptor default.
func NewGobotBus(connector i2c.Connector, busNr int) *GobotBus {
	if busNr < 0 {
		busNr = connector.DefaultI2cBus()
	}
	return &GobotBus{
		connector: connector,
		busNr:     busNr,
		conns:     make(map[byte]i2c.Connection),
	}
}

func (b *GobotBus) SelectDevice(ctx context.Context, address byte) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	conn, ok := b.conns[address]
	if !ok {
		var err error
		conn, err = b.connector.GetI2cConnection(int(address), b.busNr)
		if err != nil {
			return fmt.Errorf("could not get i2c connection to %#x on bus %d: %w", address, b.busNr, err)
		}
		b.conns[address] = conn
	}
	b.current = conn
	b.address = address
	return nil
}

func (b *GobotBus) Write(ctx context.Context, buffer []byte) (int, error) {
	b.mx.Lock()
	defer b.mx.Unlock()
	if b.current == nil {
		return 0, fmt.Errorf("no i2c device selected")
	}
	trace(ctx, "write", b.address, buffer)
	n, err := b.current.Write(buffer)
	if err != nil {
		return n, fmt.Errorf("could not write to i2c device %#x: %w", b.address, err)
	}
	return n, nil
}

func (b *GobotBus) Read(ctx context.Context, buffer []byte) (int, error) {
	b.mx.Lock()
	defer b.mx.Unlock()
	if b.current == nil {
		return 0, fmt.Errorf("no i2c device selected")
	}
	n, err := b.current.Read(buffer)
	if err != nil {
		return n, fmt.Errorf("could not read from i2c device %#x: %w", b.address, err)
	}
	trace(ctx, "read", b.address, buffer[:n])
	return n, nil
}

// Close closes every connection opened by SelectDevice.
func (b *GobotBus) Close() error {
	b.mx.Lock()
	defer b.mx.Unlock()
	var errs []error
	for addr, conn := range b.conns {
		if err := conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing %#x: %w", addr, err))
		}
		delete(b.conns, addr)
	}
	b.current = nil
	return errors.Join(errs...)
}
