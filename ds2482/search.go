package ds2482

import (
	"context"
	"log/slog"

	"github.com/mklimuk/onewire"
)

// searchState carries the ROM search across calls to Search.
type searchState struct {
	lastDiscrepancy int // -1 before the first pass
	exhausted       bool
	address         onewire.ROM
}

func (s *searchState) reset() {
	s.lastDiscrepancy = -1
	s.exhausted = false
	s.address = onewire.ROM{}
}

// ResetSearch restarts enumeration from the first device.
func (d *Dev) ResetSearch() {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.search.reset()
}

// Search returns the next device found on the bus. It returns false once every
// device has been reported, when no device answers the bus reset, or when the
// bus gives an inconsistent answer; the order of devices is deterministic for
// a given set of devices. Callers should check ROM.Valid on the result.
//
// An inconsistent answer leaves the search state untouched, so a noisy bus
// makes every subsequent call fail the same way until ResetSearch.
func (d *Dev) Search(ctx context.Context) (onewire.ROM, bool, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.next(ctx)
}

// SearchAll restarts enumeration and returns every device on the bus. On error
// the devices found so far are returned along with it.
func (d *Dev) SearchAll(ctx context.Context) ([]onewire.ROM, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.search.reset()
	var roms []onewire.ROM
	for {
		rom, found, err := d.next(ctx)
		if err != nil {
			return roms, err
		}
		if !found {
			return roms, nil
		}
		roms = append(roms, rom)
	}
}

func (d *Dev) next(ctx context.Context) (onewire.ROM, bool, error) {
	s := &d.search
	if s.exhausted {
		return onewire.ROM{}, false, nil
	}
	present, err := d.busReset(ctx)
	if err != nil {
		return onewire.ROM{}, false, err
	}
	if !present {
		return onewire.ROM{}, false, nil
	}
	if _, err := d.busyWait(ctx, true); err != nil {
		return onewire.ROM{}, false, err
	}
	if err := d.writeByte(ctx, onewire.CmdSearchROM); err != nil {
		return onewire.ROM{}, false, err
	}

	address := s.address
	lastZero := 0
	for i := 0; i < 64; i++ {
		romByte := i / 8
		romBit := byte(1) << (i % 8)

		var direction bool
		switch {
		case i < s.lastDiscrepancy:
			direction = address[romByte]&romBit != 0
		case i == s.lastDiscrepancy:
			direction = true
		}

		if _, err := d.busyWait(ctx, false); err != nil {
			return onewire.ROM{}, false, err
		}
		var payload byte
		if direction {
			payload = 0x80
		}
		if err := d.command(ctx, OpWriteTriplet, cmd1WTriplet, payload); err != nil {
			return onewire.ROM{}, false, err
		}
		status, err := d.busyWait(ctx, false)
		if err != nil {
			return onewire.ROM{}, false, err
		}

		id, complement, taken := status.SingleBit(), status.TripletBit(), status.Direction()
		if id && complement {
			slog.Debug("ds2482: search aborted, no device answered", "address", d.address, "bit", i)
			return onewire.ROM{}, false, nil
		}
		if !id && !complement && !taken {
			lastZero = i
		}
		if taken {
			address[romByte] |= romBit
		} else {
			address[romByte] &^= romBit
		}
	}

	s.address = address
	s.lastDiscrepancy = lastZero
	if lastZero == 0 {
		s.exhausted = true
	}
	return s.address, true, nil
}
