package logger

import (
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

func levelFromString(s string) (l slog.Level, ok bool) {
	switch strings.ToLower(s) {
	case "debug", "dbg":
		return slog.LevelDebug, true
	case "info", "inf":
		return slog.LevelInfo, true
	case "warn", "wrn":
		return slog.LevelWarn, true
	case "error", "err":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// InitFileLogger routes slog to a log file, creating its directory. The
// engine logs every frame at debug level, so file logging keeps the
// terminal free for the viewer.
func InitFileLogger(path, level string) {
	loglevel, _ := levelFromString(level)

	logDir := filepath.Dir(path)
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		log.Fatal("Failed to create log directory:", err)
	}

	logFile, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Fatal("Failed to open log file:", err)
	}

	handler := slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: loglevel})
	slog.SetDefault(slog.New(handler))
}

// InitConsoleLogger routes slog to the given writer, used by the replay
// command where frame output and logs share a terminal.
func InitConsoleLogger(w io.Writer, level string) {
	loglevel, _ := levelFromString(level)
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: loglevel})
	slog.SetDefault(slog.New(handler))
}
