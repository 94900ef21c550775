package ds2482

import (
	"context"
	"encoding/binary"
	"fmt"

	"periph.io/x/conn/v3/onewire"

	wire "github.com/mklimuk/onewire"
)

var _ onewire.Bus = &PeriphBus{}

// PeriphBus exposes a Dev as a periph.io onewire.Bus so that periph 1-Wire
// device drivers can run on top of the bridge. periph's bus interface carries
// no context; ctx is used for every transport access.
type PeriphBus struct {
	ctx context.Context
	dev *Dev
}

func NewPeriphBus(ctx context.Context, dev *Dev) *PeriphBus {
	return &PeriphBus{ctx: ctx, dev: dev}
}

func (b *PeriphBus) String() string {
	return b.dev.String()
}

// Halt implements conn.Resource.
func (b *PeriphBus) Halt() error {
	return nil
}

// Tx resets the bus, writes w and reads r. With onewire.StrongPullup the
// strong pullup is armed before the last byte on the wire; the chip releases
// it by itself afterwards.
func (b *PeriphBus) Tx(w, r []byte, power onewire.Pullup) error {
	d := b.dev
	d.mx.Lock()
	defer d.mx.Unlock()
	present, err := d.busReset(b.ctx)
	if err != nil {
		return err
	}
	if !present {
		return busError("ds2482: no device present")
	}
	for i, c := range w {
		if power == onewire.StrongPullup && i == len(w)-1 && len(r) == 0 {
			if err := d.strongPullup(b.ctx); err != nil {
				return err
			}
		}
		if err := d.writeByte(b.ctx, c); err != nil {
			return err
		}
	}
	for i := range r {
		if power == onewire.StrongPullup && i == len(r)-1 {
			if err := d.strongPullup(b.ctx); err != nil {
				return err
			}
		}
		if r[i], err = d.readByte(b.ctx); err != nil {
			return err
		}
	}
	return nil
}

// Search returns the addresses of every device on the bus. Alarm search is
// not supported.
func (b *PeriphBus) Search(alarmOnly bool) ([]onewire.Address, error) {
	if alarmOnly {
		return nil, fmt.Errorf("%w: alarm search", ErrUnsupported)
	}
	roms, err := b.dev.SearchAll(b.ctx)
	addrs := make([]onewire.Address, 0, len(roms))
	for _, rom := range roms {
		addrs = append(addrs, PeriphAddress(rom))
	}
	return addrs, err
}

// PeriphAddress converts a ROM code to periph's little-endian address form.
func PeriphAddress(rom wire.ROM) onewire.Address {
	return onewire.Address(binary.LittleEndian.Uint64(rom[:]))
}

// strongPullup arms SPU on top of the current configuration.
func (d *Dev) strongPullup(ctx context.Context) error {
	prev := d.wire
	if err := d.configure(ctx, prev|ConfigStrongPullup); err != nil {
		return err
	}
	d.wire = prev
	return nil
}

// busError implements onewire.BusError: the bridge works but the 1-Wire bus
// did not answer.
type busError string

func (e busError) Error() string  { return string(e) }
func (e busError) BusError() bool { return true }
