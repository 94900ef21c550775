package ds2482

import "strings"

// Status is the content of the DS2482 status register.
type Status byte

const (
	StatusBusy        Status = 1 << iota // 1WB: 1-Wire line busy
	StatusPresence                       // PPD: presence pulse detected
	StatusShort                          // SD: short detected
	StatusLogicLevel                     // LL: 1-Wire line level
	StatusDeviceReset                    // RST: device reset occurred
	StatusSingleBit                      // SBR: single bit result
	StatusTripletBit                     // TSB: triplet second bit
	StatusDirection                      // DIR: branch direction taken
)

var statusNames = [8]string{"1WB", "PPD", "SD", "LL", "RST", "SBR", "TSB", "DIR"}

func (s Status) Busy() bool        { return s&StatusBusy != 0 }
func (s Status) Presence() bool    { return s&StatusPresence != 0 }
func (s Status) Short() bool       { return s&StatusShort != 0 }
func (s Status) LogicLevel() bool  { return s&StatusLogicLevel != 0 }
func (s Status) DeviceReset() bool { return s&StatusDeviceReset != 0 }
func (s Status) SingleBit() bool   { return s&StatusSingleBit != 0 }
func (s Status) TripletBit() bool  { return s&StatusTripletBit != 0 }
func (s Status) Direction() bool   { return s&StatusDirection != 0 }

// String lists set flags, most significant first, e.g. "DIR|SBR|PPD".
func (s Status) String() string {
	var set []string
	for i := 7; i >= 0; i-- {
		if s&(1<<i) != 0 {
			set = append(set, statusNames[i])
		}
	}
	if len(set) == 0 {
		return "-"
	}
	return strings.Join(set, "|")
}

func (s Status) MarshalYAML() (interface{}, error) {
	return map[string]bool{
		"busy":         s.Busy(),
		"presence":     s.Presence(),
		"short":        s.Short(),
		"logic_level":  s.LogicLevel(),
		"device_reset": s.DeviceReset(),
		"single_bit":   s.SingleBit(),
		"triplet_bit":  s.TripletBit(),
		"direction":    s.Direction(),
	}, nil
}

// Config holds the low nibble of the device configuration register.
type Config byte

const (
	ConfigActivePullup Config = 1 << iota // APU
	ConfigPresenceMask                    // PPM
	ConfigStrongPullup                    // SPU
	ConfigOverdrive                       // 1WS
)

// encode returns the register byte: flags in the low nibble, their complement in the high one.
func (c Config) encode() byte {
	low := byte(c) & 0x0F
	return low | (^low << 4)
}

// Variant identifies the chip model.
type Variant int

const (
	DS2482_100 Variant = iota
	DS2482_800
)

func (v Variant) String() string {
	switch v {
	case DS2482_800:
		return "DS2482-800"
	default:
		return "DS2482-100"
	}
}
