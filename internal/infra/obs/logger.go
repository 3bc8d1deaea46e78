package obs

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// NewLogger builds the process logger: tint colour output for dev and local,
// JSON for everything else. LOG_LEVEL overrides the default info level.
func NewLogger(env string) *slog.Logger {
	return newLogger(os.Stdout, env, ParseLevel(os.Getenv("LOG_LEVEL")))
}

func newLogger(w io.Writer, env string, level slog.Level) *slog.Logger {
	switch strings.ToLower(env) {
	case "dev", "local":
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.RFC3339,
			AddSource:  true,
		}))
	default:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:     level,
			AddSource: true,
		})).With("service", "lodging")
	}
}

// ParseLevel maps debug, warn and error to their slog levels. Anything else is info.
func ParseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
