package ds2482

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mklimuk/onewire"
)

var _ onewire.Transport = &Simulator{}

var ErrNack = errors.New("ds2482 simulator: no acknowledge")

type wireMode int

const (
	wireIdle wireMode = iota
	wireROMCommand
	wireSearch
	wireReadROM
	wireMatch
	wireFunction
)

// Simulator emulates a DS2482 and the devices on its 1-Wire bus without any
// hardware. It implements onewire.Transport so it can be passed to New.
//
// Usage:
//
//	sim := NewSimulator(rom1, rom2)
//	dev := New(sim, 0)
//	roms, err := dev.SearchAll(ctx)
type Simulator struct {
	mx sync.Mutex

	// Address is the 7-bit address the simulated chip answers to.
	Address byte
	// ROMs are the devices present on the 1-Wire bus.
	ROMs []onewire.ROM
	// BusyPolls is the number of status reads that report busy after each 1-Wire command.
	BusyPolls int
	// StuckBusy keeps the busy flag set forever.
	StuckBusy bool
	// Inconsistent makes every triplet report both bits set.
	Inconsistent bool
	// ConfigEcho, when set, replaces the value read back from the configuration register.
	ConfigEcho func(written byte) byte
	// SelectErr is returned by SelectDevice.
	SelectErr error
	// ShortWrite makes Write report one byte less than requested.
	ShortWrite bool

	// Wire records every byte written on the 1-Wire bus.
	Wire []byte
	// StatusReads counts reads of the status register.
	StatusReads int
	// Resets counts 1-Wire bus resets.
	Resets int

	selected byte
	pointer  byte
	status   Status
	config   byte
	data     byte
	busyLeft int

	mode         wireMode
	participants []onewire.ROM
	matchBuf     []byte
	readIndex    int
}

// NewSimulator returns a simulated DS2482 at address 0x18 with the given devices.
func NewSimulator(roms ...onewire.ROM) *Simulator {
	return &Simulator{
		Address:   baseAddress,
		ROMs:      roms,
		BusyPolls: 1,
		pointer:   regStatus,
		status:    StatusDeviceReset,
	}
}

func (s *Simulator) SelectDevice(ctx context.Context, address byte) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.SelectErr != nil {
		return s.SelectErr
	}
	s.selected = address
	return nil
}

func (s *Simulator) Write(ctx context.Context, buffer []byte) (int, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.selected != s.Address {
		return 0, fmt.Errorf("%w from %#02x", ErrNack, s.selected)
	}
	if len(buffer) == 0 {
		return 0, nil
	}
	if s.ShortWrite {
		return len(buffer) - 1, nil
	}
	param := func() (byte, error) {
		if len(buffer) != 2 {
			return 0, fmt.Errorf("%w: command %#02x expects one parameter", ErrNack, buffer[0])
		}
		return buffer[1], nil
	}
	switch buffer[0] {
	case cmdDeviceReset:
		s.status = StatusDeviceReset
		s.config = 0
		s.pointer = regStatus
		s.mode = wireIdle
	case cmdSetReadPointer:
		p, err := param()
		if err != nil {
			return 0, err
		}
		s.pointer = p
	case cmdWriteConfig:
		p, err := param()
		if err != nil {
			return 0, err
		}
		if p>>4 != ^p&0x0F {
			return 0, fmt.Errorf("%w: invalid configuration byte %#02x", ErrNack, p)
		}
		s.config = p & 0x0F
		s.status &^= StatusDeviceReset
		s.pointer = regConfig
	case cmd1WReset:
		s.wireReset()
	case cmd1WWriteByte:
		p, err := param()
		if err != nil {
			return 0, err
		}
		s.wireWrite(p)
	case cmd1WReadByte:
		s.data = s.wireRead()
		s.startBusy()
	case cmd1WSingleBit:
		p, err := param()
		if err != nil {
			return 0, err
		}
		s.status &^= StatusSingleBit
		if p&0x80 != 0 {
			s.status |= StatusSingleBit
		}
		s.startBusy()
	case cmd1WTriplet:
		p, err := param()
		if err != nil {
			return 0, err
		}
		s.triplet(p&0x80 != 0)
	default:
		return 0, fmt.Errorf("%w: unsupported command %#02x", ErrNack, buffer[0])
	}
	return len(buffer), nil
}

func (s *Simulator) Read(ctx context.Context, buffer []byte) (int, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.selected != s.Address {
		return 0, fmt.Errorf("%w from %#02x", ErrNack, s.selected)
	}
	for i := range buffer {
		switch s.pointer {
		case regReadData:
			buffer[i] = s.data
		case regConfig:
			buffer[i] = s.config
			if s.ConfigEcho != nil {
				buffer[i] = s.ConfigEcho(s.config)
			}
		default:
			s.StatusReads++
			status := s.status
			if s.StuckBusy || s.busyLeft > 0 {
				status |= StatusBusy
			}
			if s.busyLeft > 0 {
				s.busyLeft--
			}
			buffer[i] = byte(status)
		}
	}
	return len(buffer), nil
}

func (s *Simulator) startBusy() {
	s.pointer = regStatus
	s.busyLeft = s.BusyPolls
}

func (s *Simulator) wireReset() {
	s.Resets++
	s.startBusy()
	s.status &^= StatusPresence | StatusSingleBit | StatusTripletBit | StatusDirection
	s.mode = wireIdle
	if len(s.ROMs) > 0 {
		s.status |= StatusPresence
		s.mode = wireROMCommand
	}
}

func (s *Simulator) wireWrite(b byte) {
	s.startBusy()
	s.Wire = append(s.Wire, b)
	switch s.mode {
	case wireROMCommand:
		switch b {
		case onewire.CmdSearchROM:
			s.mode = wireSearch
			s.participants = append([]onewire.ROM(nil), s.ROMs...)
			s.readIndex = 0
		case onewire.CmdReadROM:
			s.mode = wireReadROM
			s.readIndex = 0
		case onewire.CmdMatchROM:
			s.mode = wireMatch
			s.matchBuf = s.matchBuf[:0]
		case onewire.CmdSkipROM:
			s.mode = wireFunction
			s.participants = append([]onewire.ROM(nil), s.ROMs...)
		default:
			s.mode = wireIdle
		}
	case wireMatch:
		s.matchBuf = append(s.matchBuf, b)
		if len(s.matchBuf) == 8 {
			var rom onewire.ROM
			copy(rom[:], s.matchBuf)
			s.participants = s.participants[:0]
			for _, r := range s.ROMs {
				if r == rom {
					s.participants = append(s.participants, r)
				}
			}
			s.mode = wireFunction
		}
	}
}

// wireRead returns the wired-AND of what the addressed devices send.
func (s *Simulator) wireRead() byte {
	if s.mode != wireReadROM || s.readIndex >= 8 {
		return 0xFF
	}
	b := byte(0xFF)
	for _, r := range s.ROMs {
		b &= r[s.readIndex]
	}
	s.readIndex++
	return b
}

func (s *Simulator) triplet(direction bool) {
	s.startBusy()
	s.status &^= StatusSingleBit | StatusTripletBit | StatusDirection
	if s.mode != wireSearch || s.readIndex >= 64 || s.Inconsistent || len(s.participants) == 0 {
		s.status |= StatusSingleBit | StatusTripletBit
		if direction {
			s.status |= StatusDirection
		}
		return
	}
	i := s.readIndex
	id, complement := true, true
	for _, r := range s.participants {
		if romBit(r, i) {
			complement = false
		} else {
			id = false
		}
	}
	taken := direction
	if id != complement {
		taken = id
	}
	kept := s.participants[:0]
	for _, r := range s.participants {
		if romBit(r, i) == taken {
			kept = append(kept, r)
		}
	}
	s.participants = kept
	s.readIndex++
	if id {
		s.status |= StatusSingleBit
	}
	if complement {
		s.status |= StatusTripletBit
	}
	if taken {
		s.status |= StatusDirection
	}
}

func romBit(r onewire.ROM, i int) bool {
	return r[i/8]&(1<<(i%8)) != 0
}
