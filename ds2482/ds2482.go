// Package ds2482 drives a Maxim DS2482 I2C to 1-Wire bridge.
//
// The chip is controlled through a small command set; every command either
// returns through the read pointer (status, read data, configuration) or runs on
// the 1-Wire line while the status register reports busy. All 1-Wire primitives
// therefore poll the status register before issuing the next command.
//
// See: https://www.analog.com/media/en/technical-documentation/data-sheets/ds2482-100.pdf
package ds2482

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mklimuk/onewire"
)

const baseAddress = 0x18

// Chip commands.
const (
	cmdDeviceReset    byte = 0xF0
	cmdSetReadPointer byte = 0xE1
	cmdWriteConfig    byte = 0xD2
	cmdChannelSelect  byte = 0xC3
	cmd1WReset        byte = 0xB4
	cmd1WSingleBit    byte = 0x87
	cmd1WWriteByte    byte = 0xA5
	cmd1WReadByte     byte = 0x96
	cmd1WTriplet      byte = 0x78
)

// Read pointer codes.
const (
	regStatus   byte = 0xF0
	regReadData byte = 0xE1
	regConfig   byte = 0xC3
)

const (
	DefaultPollLimit    = 1000
	DefaultPollInterval = 20 * time.Microsecond
)

var sleep = time.Sleep

type Opts struct {
	PollLimit    int
	PollInterval time.Duration
	Variant      Variant
}

type Option func(*Opts)

// WithPollLimit sets the number of status reads after which a busy wait gives up.
func WithPollLimit(n int) Option {
	return func(o *Opts) {
		if n > 0 {
			o.PollLimit = n
		}
	}
}

// WithPollInterval sets the pause between two status reads of a busy wait.
func WithPollInterval(d time.Duration) Option {
	return func(o *Opts) {
		o.PollInterval = d
	}
}

func WithVariant(v Variant) Option {
	return func(o *Opts) {
		o.Variant = v
	}
}

// Dev is a handle to one DS2482 chip.
//
// A Dev holds the enumeration state of its 1-Wire bus. Each method is atomic
// with respect to other methods of the same Dev, but a 1-Wire transaction made of
// several calls (reset, select, write...) must be serialized by the caller.
type Dev struct {
	mx        sync.Mutex
	transport onewire.Transport
	address   byte
	config    Opts
	wire      Config // last configuration accepted by the chip
	timedOut  bool
	search    searchState
}

// New returns a handle to the chip whose AD1:AD0 pins are set to addr (0-3).
func New(t onewire.Transport, addr byte, opts ...Option) *Dev {
	config := Opts{
		PollLimit:    DefaultPollLimit,
		PollInterval: DefaultPollInterval,
		Variant:      DS2482_100,
	}
	for _, opt := range opts {
		opt(&config)
	}
	d := &Dev{
		transport: t,
		address:   baseAddress | addr&0x03,
		config:    config,
	}
	d.search.reset()
	return d
}

func (d *Dev) String() string {
	return fmt.Sprintf("%s{%#02x}", d.config.Variant, d.address)
}

// Address returns the 7-bit I2C address of the chip.
func (d *Dev) Address() byte {
	return d.address
}

// TimedOut reports whether a busy wait gave up since the last ResetMaster.
// Results of the operation that timed out are not reliable.
func (d *Dev) TimedOut() bool {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.timedOut
}

// ResetMaster resets the chip state machine and clears the timeout flag.
func (d *Dev) ResetMaster(ctx context.Context) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.timedOut = false
	if err := d.selectChip(ctx); err != nil {
		return err
	}
	if err := d.command(ctx, OpResetMaster, cmdDeviceReset); err != nil {
		return err
	}
	d.wire = 0
	return nil
}

// Configure writes the configuration register and verifies the echoed value.
// Only the four flag bits exist in the register; higher bits of cfg are ignored.
func (d *Dev) Configure(ctx context.Context, cfg Config) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.configure(ctx, cfg)
}

func (d *Dev) configure(ctx context.Context, cfg Config) error {
	cfg &= 0x0F
	if _, err := d.busyWait(ctx, true); err != nil {
		return err
	}
	if err := d.command(ctx, OpConfigure, cmdWriteConfig, cfg.encode()); err != nil {
		return err
	}
	echo, err := d.readStatusByte(ctx)
	if err != nil {
		return err
	}
	if echo != byte(cfg) {
		return &ConfigError{Requested: cfg, Echoed: echo}
	}
	d.wire = cfg
	return nil
}

// ReadStatus points the chip at its status register and returns one read of it.
func (d *Dev) ReadStatus(ctx context.Context) (Status, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.wireReadStatus(ctx, true)
}

// SelectChannel is not implemented for any variant: the channel switch of the
// DS2482-800 is not supported by this driver.
func (d *Dev) SelectChannel(ctx context.Context, ch int) error {
	return fmt.Errorf("%w: channel %d select on %s", ErrUnsupported, ch, d.config.Variant)
}

// selectChip addresses the chip on the shared transport.
func (d *Dev) selectChip(ctx context.Context) error {
	if err := d.transport.SelectDevice(ctx, d.address); err != nil {
		return &TransportError{Op: OpSelectAddress, Address: d.address, Err: fmt.Errorf("%w: %w", ErrSelect, err)}
	}
	return nil
}

// command writes a command byte with its optional parameter.
func (d *Dev) command(ctx context.Context, op Op, buf ...byte) error {
	n, err := d.transport.Write(ctx, buf)
	if err != nil {
		return &TransportError{Op: op, Address: d.address, Err: err}
	}
	if n != len(buf) {
		return &TransportError{Op: op, Address: d.address, Err: fmt.Errorf("%w: wrote %d of %d bytes", ErrShortTransfer, n, len(buf))}
	}
	return nil
}

// selectRegister sets the read pointer so that subsequent reads return reg.
func (d *Dev) selectRegister(ctx context.Context, reg byte) error {
	if err := d.selectChip(ctx); err != nil {
		return err
	}
	return d.command(ctx, OpSetReadPointer, cmdSetReadPointer, reg)
}

// readStatusByte reads one byte from whichever register the read pointer designates.
func (d *Dev) readStatusByte(ctx context.Context) (byte, error) {
	if err := d.selectChip(ctx); err != nil {
		return 0, err
	}
	buf := make([]byte, 1)
	n, err := d.transport.Read(ctx, buf)
	if err != nil {
		return 0, &TransportError{Op: OpReadByte, Address: d.address, Err: err}
	}
	if n != 1 {
		return 0, &TransportError{Op: OpReadByte, Address: d.address, Err: fmt.Errorf("%w: read %d of 1 bytes", ErrShortTransfer, n)}
	}
	return buf[0], nil
}

func (d *Dev) wireReadStatus(ctx context.Context, setPointer bool) (Status, error) {
	if setPointer {
		if err := d.selectRegister(ctx, regStatus); err != nil {
			return 0, err
		}
	}
	b, err := d.readStatusByte(ctx)
	return Status(b), err
}

// busyWait polls the status register until the 1-Wire busy flag clears. After
// PollLimit reads it sets the timeout flag and returns the last status read.
func (d *Dev) busyWait(ctx context.Context, setPointer bool) (Status, error) {
	status, err := d.wireReadStatus(ctx, setPointer)
	for polls := 1; err == nil && status.Busy(); polls++ {
		if polls >= d.config.PollLimit {
			d.timedOut = true
			slog.Warn("ds2482: busy wait timed out", "address", d.address, "polls", polls, "status", status.String())
			break
		}
		sleep(d.config.PollInterval)
		status, err = d.wireReadStatus(ctx, setPointer)
	}
	return status, err
}
