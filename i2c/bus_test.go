package i2c

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c/i2ctest"
	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/onewire/ds2482"
)

func TestGenericBus_BridgeStatus(t *testing.T) {
	playback := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x19, W: []byte{0xE1, 0xF0}},
			{Addr: 0x19, R: []byte{0x18}},
		},
		DontPanic: true,
	}
	bus := &GenericBus{bus: playback}
	dev := ds2482.New(NewTransport(bus), 1)

	status, err := dev.ReadStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "RST|LL", status.String())
	assert.Equal(t, "playback", bus.String())
	assert.NoError(t, bus.Close())
}

func TestGenericBus_Errors(t *testing.T) {
	bus := &GenericBus{bus: &i2ctest.Playback{DontPanic: true}}
	ctx := context.Background()
	assert.ErrorContains(t, bus.WriteToAddr(ctx, 0x18, []byte{0xF0}), "could not write to i2c device 0x18")
	assert.ErrorContains(t, bus.ReadFromAddr(ctx, 0x18, make([]byte, 1)), "could not read from i2c device 0x18")
}

type clockedBus struct {
	*i2ctest.Playback
	speeds   []physic.Frequency
	speedErr error
	closed   bool
}

func (b *clockedBus) SetSpeed(f physic.Frequency) error {
	b.speeds = append(b.speeds, f)
	return b.speedErr
}

func (b *clockedBus) Close() error {
	b.closed = true
	return b.Playback.Close()
}

func TestGenericBus_Clock(t *testing.T) {
	bus := &clockedBus{Playback: &i2ctest.Playback{DontPanic: true}}
	_, err := newGenericBus(bus, BusOpts{Frequency: DefaultFrequency})
	require.NoError(t, err)
	assert.Equal(t, []physic.Frequency{100 * physic.KiloHertz}, bus.speeds)
	assert.False(t, bus.closed)

	bus = &clockedBus{Playback: &i2ctest.Playback{DontPanic: true}}
	_, err = newGenericBus(bus, BusOpts{})
	require.NoError(t, err)
	assert.Empty(t, bus.speeds)

	errClock := errors.New("unsupported clock")
	bus = &clockedBus{Playback: &i2ctest.Playback{DontPanic: true}, speedErr: errClock}
	_, err = newGenericBus(bus, BusOpts{Frequency: 400 * physic.KiloHertz})
	assert.ErrorIs(t, err, errClock)
	assert.True(t, bus.closed)
}

func TestGenericBus_InvalidAddress(t *testing.T) {
	playback := &i2ctest.Playback{DontPanic: true}
	bus := &GenericBus{bus: playback}
	err := bus.WriteToAddr(context.Background(), 0x80, []byte{0xF0})
	assert.ErrorContains(t, err, "invalid 7-bit address")
	assert.Equal(t, 0, playback.Count)
}
