package logger

import (
	"io"
	"log/slog"
	"os"
)

// New returns the process logger: JSON lines on stdout.
func New() *slog.Logger {
	return NewWithWriter(os.Stdout)
}

// NewWithWriter returns a JSON logger writing to w.
func NewWithWriter(w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
}
