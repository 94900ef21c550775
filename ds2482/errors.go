package ds2482

import (
	"errors"
	"fmt"
)

var (
	ErrSelect         = errors.New("ds2482: could not select bridge address")
	ErrShortTransfer  = errors.New("ds2482: short transfer")
	ErrConfigMismatch = errors.New("ds2482: configuration echo mismatch")
	ErrUnsupported    = errors.New("ds2482: operation not supported")
	ErrNoDevice       = errors.New("ds2482: no device present on 1-wire bus")
)

// Op names the protocol step during which a transport failure happened.
type Op int

const (
	OpSelectAddress Op = iota + 1
	OpSetReadPointer
	OpReadByte
	OpResetMaster
	OpConfigure
	OpWireReset
	OpWriteByte
	OpIssueReadByte
	OpWriteBit
	OpWriteTriplet
)

func (op Op) String() string {
	switch op {
	case OpSelectAddress:
		return "select address"
	case OpSetReadPointer:
		return "set read pointer"
	case OpReadByte:
		return "read byte"
	case OpResetMaster:
		return "reset master"
	case OpConfigure:
		return "configure"
	case OpWireReset:
		return "1-wire reset"
	case OpWriteByte:
		return "write byte"
	case OpIssueReadByte:
		return "issue read byte"
	case OpWriteBit:
		return "write bit"
	case OpWriteTriplet:
		return "write triplet"
	default:
		return fmt.Sprintf("op(%d)", int(op))
	}
}

// TransportError is returned when the byte transport fails to select the bridge
// or transfers fewer bytes than requested. The failing call is not retried.
type TransportError struct {
	Op      Op
	Address byte
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("ds2482 %#02x: %s failed: %v", e.Address, e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ConfigError is returned by Configure when the chip does not echo the requested flags.
type ConfigError struct {
	Requested Config
	Echoed    byte
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("ds2482: configuration mismatch: wrote %#02x, read back %#02x", byte(e.Requested), e.Echoed)
}

func (e *ConfigError) Unwrap() error {
	return ErrConfigMismatch
}
