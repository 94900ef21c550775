package onewire

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// 1-Wire ROM function commands.
const (
	CmdSearchROM byte = 0xF0
	CmdReadROM   byte = 0x33
	CmdMatchROM  byte = 0x55
	CmdSkipROM   byte = 0xCC
)

var ErrInvalidCRC = errors.New("onewire: invalid ROM crc")
var ErrInvalidROM = errors.New("onewire: invalid ROM code")

// ROM is the 64-bit unique identifier of a 1-Wire device in wire order:
//
//	byte 0    family code
//	byte 1-6  48-bit serial number, least significant byte first
//	byte 7    CRC8 of bytes 0-6
type ROM [8]byte

func (r ROM) Family() byte {
	return r[0]
}

// Serial returns the 48-bit serial number.
func (r ROM) Serial() uint64 {
	var buf [8]byte
	copy(buf[:6], r[1:7])
	return binary.LittleEndian.Uint64(buf[:])
}

func (r ROM) CRC() byte {
	return r[7]
}

// Valid reports whether the CRC byte matches the rest of the code. The all-zero
// code produced by a shorted bus is never valid.
func (r ROM) Valid() bool {
	if r == (ROM{}) {
		return false
	}
	return CRC8(r[:7]) == r[7]
}

// String returns the code as family-serial-crc with the serial most significant
// byte first, e.g. 28-0000070e41ac-74.
func (r ROM) String() string {
	return fmt.Sprintf("%02x-%012x-%02x", r.Family(), r.Serial(), r.CRC())
}

// ParseROM parses either the String form or 16 hex digits in wire order.
// The CRC must match.
func ParseROM(s string) (ROM, error) {
	var rom ROM
	s = strings.TrimSpace(strings.ToLower(s))
	parts := strings.Split(s, "-")
	switch {
	case len(parts) == 3 && len(parts[0]) == 2 && len(parts[1]) == 12 && len(parts[2]) == 2:
		raw, err := hex.DecodeString(parts[0] + parts[1] + parts[2])
		if err != nil {
			return rom, fmt.Errorf("%w %q: %w", ErrInvalidROM, s, err)
		}
		rom[0] = raw[0]
		for i := 0; i < 6; i++ {
			rom[1+i] = raw[6-i]
		}
		rom[7] = raw[7]
	case len(parts) == 1 && len(s) == 16:
		raw, err := hex.DecodeString(s)
		if err != nil {
			return rom, fmt.Errorf("%w %q: %w", ErrInvalidROM, s, err)
		}
		copy(rom[:], raw)
	default:
		return rom, fmt.Errorf("%w %q", ErrInvalidROM, s)
	}
	if !rom.Valid() {
		return rom, fmt.Errorf("%w: %s (expected %02x)", ErrInvalidCRC, rom, CRC8(rom[:7]))
	}
	return rom, nil
}

func (r ROM) MarshalYAML() (interface{}, error) {
	return r.String(), nil
}

func (r *ROM) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	rom, err := ParseROM(s)
	if err != nil {
		return err
	}
	*r = rom
	return nil
}
