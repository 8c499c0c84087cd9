package chat

import (
	"io"
	"log/slog"
)

// discardLogger - default logger, chat is silent unless WithLogger is used.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func logWarn(l *slog.Logger, msg string, err error, attrs ...any) {
	l.Warn(msg, append(attrs, slog.Any("err", err))...)
}
