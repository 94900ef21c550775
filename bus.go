package onewire

import (
	"context"
	"fmt"
)

var ErrBusBusy = fmt.Errorf("I2C engine is busy (command not completed)")

// Transport is a byte oriented bus connection shared by several peripherals.
// SelectDevice addresses the peripheral that subsequent reads and writes talk to.
// Read and Write report the number of bytes actually transferred.
type Transport interface {
	SelectDevice(ctx context.Context, address byte) error
	Write(ctx context.Context, buffer []byte) (int, error)
	Read(ctx context.Context, buffer []byte) (int, error)
}

type AddressableReader interface {
	ReadFromAddr(ctx context.Context, address byte, buffer []byte) error
}

type AddressableWriter interface {
	WriteToAddr(ctx context.Context, address byte, buffer []byte) error
	Release(ctx context.Context) error
}

// I2CBus is a bus that addresses the peripheral on every transfer.
type I2CBus interface {
	AddressableReader
	AddressableWriter
}
