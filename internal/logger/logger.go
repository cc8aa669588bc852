package logger

import (
	"log/slog"
	"os"
	"strings"

	"github.com/polkiloo/storefront/internal/config"
)

// New creates a JSON slog.Logger tagged with the storefront session namespace.
func New(cfg *config.Config) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: ParseLevel(cfg.LogLevel)})
	return slog.New(handler).With(slog.String("service", "storefront"), slog.String("namespace", cfg.SessionNamespace))
}

// ParseLevel maps a textual level to slog. Unknown values fall back to info.
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
