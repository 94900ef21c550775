package onewire

import (
	"encoding/hex"
	"math/rand"
	"testing"

	"github.com/sigurn/crc8"
	"github.com/stretchr/testify/assert"
)

func TestCRC8_KnownVectors(t *testing.T) {
	tests := []struct {
		given    []byte
		expected byte
	}{
		{[]byte{}, 0x00},
		{[]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07}, 0x0F},
		{[]byte("123456789"), 0xA1},
		{[]byte{0x02, 0x1C, 0xB8, 0x01, 0x00, 0x00, 0x00}, 0xA2},
		{[]byte{0x28, 0xAC, 0x41, 0x0E, 0x07, 0x00, 0x00}, 0x74},
	}
	for _, test := range tests {
		t.Run(hex.EncodeToString(test.given), func(t *testing.T) {
			assert.Equal(t, test.expected, CRC8(test.given))
		})
	}
}

func TestCRC8_AppendedChecksumYieldsZero(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	for n := 1; n < 64; n++ {
		data := make([]byte, n)
		rnd.Read(data)
		sum := CRC8(data)
		assert.Equal(t, byte(0), CRC8(append(data, sum)), "data %x", data)
	}
}

func TestCRC8_MatchesMaximTable(t *testing.T) {
	table := crc8.MakeTable(crc8.CRC8_MAXIM)
	rnd := rand.New(rand.NewSource(1))
	for range 200 {
		data := make([]byte, 1+rnd.Intn(32))
		rnd.Read(data)
		assert.Equal(t, crc8.Checksum(data, table), CRC8(data), "data %x", data)
	}
}
