package i2c

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockI2CBus is a mock implementation of onewire.I2CBus using testify/mock
type MockI2CBus struct {
	mock.Mock
}

func (m *MockI2CBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	args := m.Called(ctx, address, buffer)
	return args.Error(0)
}

func (m *MockI2CBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	args := m.Called(ctx, address, buffer)
	if data, ok := args.Get(0).([]byte); ok && len(data) <= len(buffer) {
		copy(buffer, data)
	}
	return args.Error(1)
}

func (m *MockI2CBus) Release(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func TestAddressedTransport(t *testing.T) {
	ctx := context.Background()
	bus := new(MockI2CBus)
	bus.On("WriteToAddr", mock.Anything, byte(0x18), []byte{0xE1, 0xF0}).Return(nil).Once()
	bus.On("ReadFromAddr", mock.Anything, byte(0x18), mock.Anything).Return([]byte{0x18}, nil).Once()

	tr := NewTransport(bus)
	require.NoError(t, tr.SelectDevice(ctx, 0x18))
	n, err := tr.Write(ctx, []byte{0xE1, 0xF0})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	buf := make([]byte, 1)
	n, err = tr.Read(ctx, buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, byte(0x18), buf[0])
	bus.AssertExpectations(t)
}

func TestAddressedTransport_Errors(t *testing.T) {
	ctx := context.Background()
	bus := new(MockI2CBus)
	tr := NewTransport(bus)

	_, err := tr.Write(ctx, []byte{0x00})
	assert.Error(t, err, "write before select")
	assert.Error(t, tr.SelectDevice(ctx, 0x80))

	errBus := errors.New("nack")
	bus.On("WriteToAddr", mock.Anything, byte(0x19), mock.Anything).Return(errBus)
	bus.On("ReadFromAddr", mock.Anything, byte(0x19), mock.Anything).Return(nil, errBus)
	require.NoError(t, tr.SelectDevice(ctx, 0x19))
	n, err := tr.Write(ctx, []byte{0xB4})
	assert.ErrorIs(t, err, errBus)
	assert.Zero(t, n)
	n, err = tr.Read(ctx, make([]byte, 1))
	assert.ErrorIs(t, err, errBus)
	assert.Zero(t, n)
	bus.AssertNotCalled(t, "Release", mock.Anything)
}
