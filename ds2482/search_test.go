package ds2482

import (
	"context"
	"errors"
	"testing"

	"github.com/mklimuk/onewire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	sensorA = onewire.ROM{0x28, 0xAC, 0x41, 0x0E, 0x07, 0x00, 0x00, 0x74}
	sensorB = onewire.ROM{0x28, 0xAD, 0x41, 0x0E, 0x07, 0x00, 0x00, 0x43}
	sensorC = onewire.ROM{0x28, 0x3D, 0x2C, 0x1B, 0x0A, 0x00, 0x00, 0xA6}
	sensorD = onewire.ROM{0x28, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x29}
)

func enumerate(t *testing.T, d *Dev) []onewire.ROM {
	t.Helper()
	ctx := context.Background()
	d.ResetSearch()
	var roms []onewire.ROM
	for range 100 {
		rom, found, err := d.Search(ctx)
		require.NoError(t, err)
		if !found {
			return roms
		}
		roms = append(roms, rom)
	}
	t.Fatal("search did not terminate")
	return nil
}

func TestSearch_SingleDevice(t *testing.T) {
	stubSleep(t)
	ctx := context.Background()
	d := New(NewSimulator(sensorA), 0)

	rom, found, err := d.Search(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, sensorA, rom)
	assert.True(t, rom.Valid())

	_, found, err = d.Search(ctx)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSearch_Order(t *testing.T) {
	stubSleep(t)
	d := New(NewSimulator(sensorA, sensorB, sensorC, sensorD), 0)
	roms := enumerate(t, d)
	assert.Equal(t, []onewire.ROM{sensorA, sensorD, sensorB, sensorC}, roms)
	for _, rom := range roms {
		assert.True(t, rom.Valid(), rom.String())
	}
}

func TestSearch_Deterministic(t *testing.T) {
	stubSleep(t)
	sim := NewSimulator(sensorC, sensorB, sensorD, sensorA)
	d := New(sim, 0)
	first := enumerate(t, d)
	require.Len(t, first, 4)
	assert.ElementsMatch(t, sim.ROMs, first)
	for range 20 {
		assert.Equal(t, first, enumerate(t, d))
	}
	// the order does not depend on how the devices are wired
	assert.Equal(t, first, enumerate(t, New(NewSimulator(sensorA, sensorB, sensorC, sensorD), 0)))
}

func TestSearch_Exhausted(t *testing.T) {
	stubSleep(t)
	ctx := context.Background()
	sim := NewSimulator(sensorA, sensorB)
	d := New(sim, 0)
	require.Len(t, enumerate(t, d), 2)

	resets := sim.Resets
	for range 300 {
		_, found, err := d.Search(ctx)
		require.NoError(t, err)
		require.False(t, found)
	}
	assert.Equal(t, resets, sim.Resets, "exhausted search must not touch the bus")

	d.ResetSearch()
	rom, found, err := d.Search(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, sensorA, rom)
}

func TestSearch_NoDevice(t *testing.T) {
	stubSleep(t)
	ctx := context.Background()
	sim := NewSimulator()
	d := New(sim, 0)
	_, found, err := d.Search(ctx)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, -1, d.search.lastDiscrepancy)
	assert.False(t, d.search.exhausted)

	// devices appearing later are found
	sim.ROMs = []onewire.ROM{sensorB}
	rom, found, err := d.Search(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, sensorB, rom)
}

func TestSearch_InconsistentBusLeavesState(t *testing.T) {
	stubSleep(t)
	ctx := context.Background()
	sim := NewSimulator(sensorA, sensorB, sensorC)
	d := New(sim, 0)
	_, found, err := d.Search(ctx)
	require.NoError(t, err)
	require.True(t, found)
	before := d.search

	sim.Inconsistent = true
	for range 3 {
		_, found, err = d.Search(ctx)
		require.NoError(t, err)
		assert.False(t, found)
		assert.Equal(t, before, d.search)
	}

	sim.Inconsistent = false
	rom, found, err := d.Search(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, sensorB, rom)
}

func TestSearch_WireBytes(t *testing.T) {
	stubSleep(t)
	ctx := context.Background()
	sim := NewSimulator(sensorA)
	d := New(sim, 0)
	_, _, err := d.Search(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte{onewire.CmdSearchROM}, sim.Wire)
	assert.Equal(t, 1, sim.Resets)
}

func TestSearch_TransportError(t *testing.T) {
	stubSleep(t)
	ctx := context.Background()
	sim := NewSimulator(sensorA, sensorB)
	d := New(sim, 0)
	errBus := errors.New("bus error")
	sim.SelectErr = errBus
	_, found, err := d.Search(ctx)
	assert.ErrorIs(t, err, errBus)
	assert.False(t, found)
}

func TestSearchAll(t *testing.T) {
	stubSleep(t)
	ctx := context.Background()
	d := New(NewSimulator(sensorA, sensorB, sensorC, sensorD), 0)
	for range 3 {
		roms, err := d.SearchAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, []onewire.ROM{sensorA, sensorD, sensorB, sensorC}, roms)
	}

	roms, err := New(NewSimulator(), 0).SearchAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, roms)
}
