package ds2482

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockTransport is a mock implementation of onewire.Transport using testify/mock.
// Read expectations return the bytes to copy into the buffer, the count and the error.
type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) SelectDevice(ctx context.Context, address byte) error {
	args := m.Called(ctx, address)
	return args.Error(0)
}

func (m *MockTransport) Write(ctx context.Context, buffer []byte) (int, error) {
	args := m.Called(ctx, buffer)
	return args.Int(0), args.Error(1)
}

func (m *MockTransport) Read(ctx context.Context, buffer []byte) (int, error) {
	args := m.Called(ctx, buffer)
	if data, ok := args.Get(0).([]byte); ok {
		copy(buffer, data)
	}
	return args.Int(1), args.Error(2)
}
