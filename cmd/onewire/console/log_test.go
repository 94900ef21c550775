package console

import (
	"bytes"
	"os"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestOutput(t *testing.T) {
	color.NoColor = true
	var out, errOut bytes.Buffer
	SetOutput(&out, &errOut)
	defer SetOutput(os.Stdout, os.Stderr)

	Errorf("bus %d gone", 1)
	Warnf("slow")
	assert.Equal(t, "ERROR: bus 1 gone\nWARN: slow\n", errOut.String())
	assert.Same(t, &out, Writer())
}

func TestCheck(t *testing.T) {
	color.NoColor = true
	assert.Equal(t, "crc ok", Check(true, "crc ok", "crc error"))
	assert.Equal(t, "crc error", Check(false, "crc ok", "crc error"))
}

func TestExit(t *testing.T) {
	err := Exit(3, "adapter %s failed", "sim")
	assert.Equal(t, 3, err.ExitCode())
	assert.EqualError(t, err, "adapter sim failed")
}
