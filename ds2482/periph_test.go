package ds2482

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/onewire"

	wire "github.com/mklimuk/onewire"
)

func TestPeriphAddress(t *testing.T) {
	assert.Equal(t, onewire.Address(0x740000070e41ac28), PeriphAddress(sensorA))
}

func TestPeriphBus_Search(t *testing.T) {
	stubSleep(t)
	bus := NewPeriphBus(context.Background(), New(NewSimulator(sensorA, sensorB, sensorD), 0))
	addrs, err := bus.Search(false)
	require.NoError(t, err)
	assert.Equal(t, []onewire.Address{PeriphAddress(sensorA), PeriphAddress(sensorD), PeriphAddress(sensorB)}, addrs)

	_, err = bus.Search(true)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestPeriphBus_Tx(t *testing.T) {
	stubSleep(t)
	sim := NewSimulator(sensorA)
	bus := NewPeriphBus(context.Background(), New(sim, 0))

	rom := make([]byte, 8)
	require.NoError(t, bus.Tx([]byte{wire.CmdReadROM}, rom, onewire.WeakPullup))
	assert.Equal(t, sensorA[:], rom)
	assert.Equal(t, 1, sim.Resets)

	sim.Wire = nil
	dev := onewire.Dev{Bus: bus, Addr: PeriphAddress(sensorA)}
	require.NoError(t, dev.Tx([]byte{0x44}, nil))
	assert.Equal(t, append(append([]byte{wire.CmdMatchROM}, sensorA[:]...), 0x44), sim.Wire)
	assert.Equal(t, "DS2482-100{0x18}(0x740000070e41ac28)", dev.String())
}

func TestPeriphBus_StrongPullup(t *testing.T) {
	stubSleep(t)
	sim := NewSimulator(sensorA)
	d := New(sim, 0)
	require.NoError(t, d.Configure(context.Background(), ConfigActivePullup))
	bus := NewPeriphBus(context.Background(), d)

	var armed []byte
	sim.ConfigEcho = func(written byte) byte {
		armed = append(armed, written)
		return written
	}
	require.NoError(t, bus.Tx([]byte{wire.CmdSkipROM, 0x44}, nil, onewire.StrongPullup))
	assert.Equal(t, []byte{wire.CmdSkipROM, 0x44}, sim.Wire)
	assert.Equal(t, []byte{byte(ConfigActivePullup | ConfigStrongPullup)}, armed)
	assert.Equal(t, ConfigActivePullup, d.wire)
}

func TestPeriphBus_NoDevice(t *testing.T) {
	stubSleep(t)
	bus := NewPeriphBus(context.Background(), New(NewSimulator(), 0))
	err := bus.Tx([]byte{wire.CmdSkipROM}, nil, onewire.WeakPullup)
	require.Error(t, err)
	var be onewire.BusError
	require.ErrorAs(t, err, &be)
	assert.True(t, be.BusError())
}
