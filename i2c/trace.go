package i2c

import (
	"context"
	"encoding/hex"
	"log/slog"

	"github.com/mklimuk/onewire/wirectx"
)

func trace(ctx context.Context, direction string, address byte, buffer []byte) {
	if !wirectx.IsTrace(ctx) {
		return
	}
	slog.Debug("i2c "+direction, "address", address, "dump", "\n"+hex.Dump(buffer))
}
