//go:build linux

package i2c

import (
	"context"
	"fmt"
	"sync"

	"github.com/mklimuk/onewire"
	"golang.org/x/sys/unix"
)

// ioctl request selecting the peripheral address of an i2c-dev file.
const i2cSlave = 0x0703

var _ onewire.Transport = &DevFile{}

// DevFile is a Linux i2c-dev character device. SelectDevice maps to the
// I2C_SLAVE ioctl; Read and Write are plain transfers to the selected address.
type DevFile struct {
	mx      sync.Mutex
	path    string
	fd      int
	address byte
}

func OpenDevFile(path string) (*DevFile, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("could not open %s: %w", path, err)
	}
	return &DevFile{path: path, fd: fd}, nil
}

func (f *DevFile) SelectDevice(ctx context.Context, address byte) error {
	f.mx.Lock()
	defer f.mx.Unlock()
	if err := unix.IoctlSetInt(f.fd, i2cSlave, int(address)); err != nil {
		return fmt.Errorf("%s: could not select device %#x: %w", f.path, address, err)
	}
	f.address = address
	return nil
}

func (f *DevFile) Write(ctx context.Context, buffer []byte) (int, error) {
	f.mx.Lock()
	defer f.mx.Unlock()
	trace(ctx, "write", f.address, buffer)
	n, err := unix.Write(f.fd, buffer)
	if err != nil {
		return n, fmt.Errorf("%s: write failed: %w", f.path, err)
	}
	return n, nil
}

func (f *DevFile) Read(ctx context.Context, buffer []byte) (int, error) {
	f.mx.Lock()
	defer f.mx.Unlock()
	n, err := unix.Read(f.fd, buffer)
	if err != nil {
		return n, fmt.Errorf("%s: read failed: %w", f.path, err)
	}
	if n > 0 {
		trace(ctx, "read", f.address, buffer[:n])
	}
	return n, nil
}

func (f *DevFile) String() string {
	return f.path
}

func (f *DevFile) Close() error {
	f.mx.Lock()
	defer f.mx.Unlock()
	return unix.Close(f.fd)
}
