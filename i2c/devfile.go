package i2c

import (
	"errors"
	"fmt"
)

var ErrUnsupportedPlatform = errors.New("i2c device files are only available on linux")

// DevicePath returns the i2c-dev character device of bus number n.
func DevicePath(n int) string {
	return fmt.Sprintf("/dev/i2c-%d", n)
}
