package ds2482

import (
	"context"
	"fmt"

	"github.com/mklimuk/onewire"
)

// BusReset issues a 1-Wire reset and reports whether any device answered
// with a presence pulse.
func (d *Dev) BusReset(ctx context.Context) (bool, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.busReset(ctx)
}

// WriteByte writes one byte on the 1-Wire bus. It does not wait for the write
// to complete; the next operation's busy wait does.
func (d *Dev) WriteByte(ctx context.Context, b byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.writeByte(ctx, b)
}

// ReadByte reads one byte from the 1-Wire bus.
func (d *Dev) ReadByte(ctx context.Context) (byte, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.readByte(ctx)
}

// WriteBit generates a single 1-Wire time slot.
func (d *Dev) WriteBit(ctx context.Context, bit bool) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.writeBit(ctx, bit)
}

// ReadBit samples the bus by writing a 1 bit and reading back the line.
func (d *Dev) ReadBit(ctx context.Context) (bool, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.readBit(ctx)
}

// Skip addresses every device on the bus at once. Call BusReset first.
func (d *Dev) Skip(ctx context.Context) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.writeByte(ctx, onewire.CmdSkipROM)
}

// Select addresses the single device whose ROM code is rom. Call BusReset first.
func (d *Dev) Select(ctx context.Context, rom onewire.ROM) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	if err := d.writeByte(ctx, onewire.CmdMatchROM); err != nil {
		return err
	}
	for _, b := range rom {
		if err := d.writeByte(ctx, b); err != nil {
			return err
		}
	}
	return nil
}

// Write writes p byte by byte, stopping at the first error.
func (d *Dev) Write(ctx context.Context, p []byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	for i, b := range p {
		if err := d.writeByte(ctx, b); err != nil {
			return fmt.Errorf("byte %d: %w", i, err)
		}
	}
	return nil
}

// Read fills p with bytes read from the bus, stopping at the first error.
func (d *Dev) Read(ctx context.Context, p []byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	for i := range p {
		b, err := d.readByte(ctx)
		if err != nil {
			return fmt.Errorf("byte %d: %w", i, err)
		}
		p[i] = b
	}
	return nil
}

// ReadROM returns the code of the only device on the bus. With more than one
// device the answers collide and the result fails CRC validation.
func (d *Dev) ReadROM(ctx context.Context) (onewire.ROM, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	var rom onewire.ROM
	present, err := d.busReset(ctx)
	if err != nil {
		return rom, err
	}
	if !present {
		return rom, ErrNoDevice
	}
	if err := d.writeByte(ctx, onewire.CmdReadROM); err != nil {
		return rom, err
	}
	for i := range rom {
		if rom[i], err = d.readByte(ctx); err != nil {
			return rom, err
		}
	}
	if !rom.Valid() {
		return rom, fmt.Errorf("ds2482: read rom %s: %w", rom, onewire.ErrInvalidCRC)
	}
	return rom, nil
}

func (d *Dev) busReset(ctx context.Context) (bool, error) {
	if _, err := d.busyWait(ctx, true); err != nil {
		return false, err
	}
	if err := d.command(ctx, OpWireReset, cmd1WReset); err != nil {
		return false, err
	}
	status, err := d.busyWait(ctx, false)
	if err != nil {
		return false, err
	}
	return status.Presence(), nil
}

func (d *Dev) writeByte(ctx context.Context, b byte) error {
	if _, err := d.busyWait(ctx, true); err != nil {
		return err
	}
	return d.command(ctx, OpWriteByte, cmd1WWriteByte, b)
}

func (d *Dev) readByte(ctx context.Context) (byte, error) {
	if _, err := d.busyWait(ctx, true); err != nil {
		return 0, err
	}
	if err := d.command(ctx, OpIssueReadByte, cmd1WReadByte); err != nil {
		return 0, err
	}
	if _, err := d.busyWait(ctx, false); err != nil {
		return 0, err
	}
	if err := d.selectRegister(ctx, regReadData); err != nil {
		return 0, err
	}
	return d.readStatusByte(ctx)
}

func (d *Dev) writeBit(ctx context.Context, bit bool) error {
	if _, err := d.busyWait(ctx, true); err != nil {
		return err
	}
	var payload byte
	if bit {
		payload = 0x80
	}
	return d.command(ctx, OpWriteBit, cmd1WSingleBit, payload)
}

func (d *Dev) readBit(ctx context.Context) (bool, error) {
	if err := d.writeBit(ctx, true); err != nil {
		return false, err
	}
	status, err := d.busyWait(ctx, true)
	if err != nil {
		return false, err
	}
	return status.SingleBit(), nil
}
