package log

import (
	"io"
	"log/slog"
	"os"

	"github.com/mistweaverco/selfupdate/internal/lib/version"
	"gopkg.in/natefinch/lumberjack.v2"
)

// logLevel is shared by every logger of this package.
var logLevel = new(slog.LevelVar)

// SetLogLevel changes the level of all loggers created here, including
// the ones created before the call.
func SetLogLevel(level slog.Level) {
	logLevel.Set(level)
}

// levelFromEnv resolves the log level from SELFUPDATE_DEBUG.
// Release builds log errors only unless told otherwise,
// development builds log everything.
func levelFromEnv() slog.Level {
	level := slog.LevelDebug
	if version.IsRelease() {
		level = slog.LevelError
	}
	switch os.Getenv("SELFUPDATE_DEBUG") {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return level
}

func newJSONLogger(w io.Writer) *slog.Logger {
	logLevel.Set(levelFromEnv())
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: logLevel}))
}

// NewLogger returns a JSON logger writing to stderr.
func NewLogger() *slog.Logger {
	return newJSONLogger(os.Stderr)
}

// NewFileLogger returns a JSON logger writing to a rotating log file.
// The returned closer flushes and closes the underlying file.
func NewFileLogger(path string) (*slog.Logger, io.Closer) {
	w := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
	return newJSONLogger(w), w
}
