package testutil

import (
	"io"
	"log/slog"

	"github.com/ARTHON9611/Time-Locked-Vault/internal/logger"
)

func MakeNoopLogger() *logger.Logger {
	return &logger.Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))}
}
