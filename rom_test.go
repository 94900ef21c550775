package onewire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

var sensorROM = ROM{0x28, 0xAC, 0x41, 0x0E, 0x07, 0x00, 0x00, 0x74}

func TestROM_Fields(t *testing.T) {
	assert.Equal(t, byte(0x28), sensorROM.Family())
	assert.Equal(t, uint64(0x0000070E41AC), sensorROM.Serial())
	assert.Equal(t, byte(0x74), sensorROM.CRC())
	assert.True(t, sensorROM.Valid())
	assert.Equal(t, "28-0000070e41ac-74", sensorROM.String())
}

func TestROM_Valid(t *testing.T) {
	assert.False(t, ROM{}.Valid())
	broken := sensorROM
	broken[3] ^= 0x01
	assert.False(t, broken.Valid())
}

func TestParseROM(t *testing.T) {
	tests := []struct {
		given string
		err   error
	}{
		{"28-0000070e41ac-74", nil},
		{"28-0000070E41AC-74", nil},
		{"28ac410e07000074", nil},
		{" 28ac410e07000074\n", nil},
		{"28-0000070e41ac-75", ErrInvalidCRC},
		{"28ac410e07000075", ErrInvalidCRC},
		{"28-70e41ac-74", ErrInvalidROM},
		{"zzac410e07000074", ErrInvalidROM},
		{"", ErrInvalidROM},
	}
	for _, test := range tests {
		t.Run(test.given, func(t *testing.T) {
			rom, err := ParseROM(test.given)
			if test.err != nil {
				assert.ErrorIs(t, err, test.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, sensorROM, rom)
		})
	}
}

func TestROM_YAML(t *testing.T) {
	type doc struct {
		Devices []ROM `yaml:"devices"`
	}
	out, err := yaml.Marshal(doc{Devices: []ROM{sensorROM}})
	require.NoError(t, err)
	assert.Contains(t, string(out), "28-0000070e41ac-74")

	var in doc
	require.NoError(t, yaml.Unmarshal(out, &in))
	assert.Equal(t, []ROM{sensorROM}, in.Devices)

	assert.Error(t, yaml.Unmarshal([]byte("devices: [28-0000070e41ac-00]"), &in))
}
