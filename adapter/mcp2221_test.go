package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeTransfer(t *testing.T) {
	request := make([]byte, reportSize)
	encodeTransfer(request, cmdI2CRead, 0x18<<1|1, 1)
	assert.Equal(t, []byte{0x91, 0x01, 0x00, 0x31}, request[:4])

	encodeTransfer(request, cmdI2CWrite, 0x18<<1, 2)
	assert.Equal(t, []byte{0x90, 0x02, 0x00, 0x30}, request[:4])
}

func TestDecodeReadData(t *testing.T) {
	response := make([]byte, reportSize)
	response[0] = cmdI2CGetData
	response[3] = 1
	response[4] = 0x18
	buf := make([]byte, 1)
	require.NoError(t, decodeReadData(response, buf))
	assert.Equal(t, byte(0x18), buf[0])

	response[3] = 127
	assert.ErrorIs(t, decodeReadData(response, buf), ErrCommandFailed)

	response[3] = 1
	response[1] = respReadFailure
	assert.ErrorIs(t, decodeReadData(response, buf), ErrCommandFailed)
}

func TestBufferToStatus(t *testing.T) {
	buffer := make([]byte, reportSize)
	buffer[9], buffer[10] = 0x02, 0x00
	buffer[11], buffer[12] = 0x01, 0x00
	buffer[13] = 3
	buffer[14] = 0x76
	buffer[15] = 0x0A
	buffer[16], buffer[17] = 0x30, 0x00
	buffer[25] = 1

	status := bufferToStatus(buffer)
	assert.Equal(t, &MCP2221Status{
		I2CDataBufferCounter:   3,
		I2CSpeedDivider:        0x76,
		I2CTimeout:             0x0A,
		CurrentAddress:         "3000",
		LastWriteRequestedSize: 2,
		LastWriteSentSize:      1,
		ReadPending:            1,
	}, status)
}
