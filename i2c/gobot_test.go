package i2c

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gobot.io/x/gobot/v2/drivers/i2c"
)

type fakeConnection struct {
	i2c.Connection
	written bytes.Buffer
	reply   []byte
	closed  bool
}

func (c *fakeConnection) Write(b []byte) (int, error) {
	return c.written.Write(b)
}

func (c *fakeConnection) Read(b []byte) (int, error) {
	return copy(b, c.reply), nil
}

func (c *fakeConnection) Close() error {
	c.closed = true
	return nil
}

type fakeConnector struct {
	conns map[int]*fakeConnection
	opens int
}

func (f *fakeConnector) GetI2cConnection(address int, busNr int) (i2c.Connection, error) {
	if busNr != 1 {
		return nil, errors.New("no such bus")
	}
	f.opens++
	c, ok := f.conns[address]
	if !ok {
		return nil, errors.New("no such device")
	}
	return c, nil
}

func (f *fakeConnector) DefaultI2cBus() int {
	return 1
}

func TestGobotBus(t *testing.T) {
	ctx := context.Background()
	chip := &fakeConnection{reply: []byte{0x18}}
	conn := &fakeConnector{conns: map[int]*fakeConnection{0x18: chip}}
	bus := NewGobotBus(conn, -1)

	_, err := bus.Write(ctx, []byte{0xF0})
	assert.Error(t, err, "write before select")

	require.NoError(t, bus.SelectDevice(ctx, 0x18))
	require.NoError(t, bus.SelectDevice(ctx, 0x18))
	assert.Equal(t, 1, conn.opens)

	n, err := bus.Write(ctx, []byte{0xE1, 0xF0})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []byte{0xE1, 0xF0}, chip.written.Bytes())

	buf := make([]byte, 1)
	n, err = bus.Read(ctx, buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, byte(0x18), buf[0])

	assert.Error(t, bus.SelectDevice(ctx, 0x19))

	require.NoError(t, bus.Close())
	assert.True(t, chip.closed)
}
