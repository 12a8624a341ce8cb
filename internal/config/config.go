// Package config loads client configuration from the environment.
package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values.
type Config struct {
	// Backend
	ServerURL      string
	RequestTimeout time.Duration

	// Client-local state (token + history)
	DataPath string

	// Presentation: "ar" or "en" messages; labels follow unless LabelSet is "raw"
	Language string
	LabelSet string

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads configuration from environment variables, after loading a .env
// file from the working directory if one exists.
func Load() Config {
	_ = godotenv.Load()

	lang := strings.ToLower(getEnv("ADVISER_LANG", "ar"))
	return Config{
		ServerURL:      getEnv("ADVISER_SERVER_URL", "http://localhost:8000"),
		RequestTimeout: parseDuration(getEnv("ADVISER_REQUEST_TIMEOUT", ""), 30*time.Second),

		DataPath: getEnv("ADVISER_DATA_PATH", defaultDataPath()),

		Language: lang,
		LabelSet: strings.ToLower(getEnv("ADVISER_LABELS", lang)),

		LogFile:  getEnv("ADVISER_LOG_FILE", filepath.Join(os.TempDir(), "adviser.log")),
		LogLevel: parseLogLevel(getEnv("ADVISER_LOG_LEVEL", "INFO")),
	}
}

// defaultDataPath follows XDG_DATA_HOME, falling back to ~/.local/share.
func defaultDataPath() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "adviser", "state.db")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "adviser", "state.db")
	}
	return filepath.Join(os.TempDir(), "adviser", "state.db")
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
