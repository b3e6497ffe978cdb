package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/charmbracelet/log"

	"github.com/vearutop/vsadjust"
)

// newLogger creates a logger writing to w at the given level.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger attaches l to ctx and routes library diagnostics through it.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	vsadjust.SetLogger(slog.New(l))
	return context.WithValue(ctx, loggerKey, l)
}

func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
