//go:build !linux

package i2c

import (
	"context"
	"fmt"
)

type DevFile struct{}

func OpenDevFile(path string) (*DevFile, error) {
	return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedPlatform)
}

func (f *DevFile) SelectDevice(ctx context.Context, address byte) error {
	return ErrUnsupportedPlatform
}

func (f *DevFile) Write(ctx context.Context, buffer []byte) (int, error) {
	return 0, ErrUnsupportedPlatform
}

func (f *DevFile) Read(ctx context.Context, buffer []byte) (int, error) {
	return 0, ErrUnsupportedPlatform
}

func (f *DevFile) String() string {
	return "unsupported"
}

func (f *DevFile) Close() error {
	return nil
}
