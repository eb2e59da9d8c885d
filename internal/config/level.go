package config

import (
	"log/slog"
	"os"
)

// ParseLevel parses a slog level name such as "debug" or "warn+2".
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	err := l.UnmarshalText([]byte(s))
	return l, err
}

// Level picks the effective log level: flag, then ALERTER_LOG_LEVEL, then
// the config file. Unparseable values fall through to the next source.
func (c *Config) Level(flag string) slog.Level {
	for _, s := range []string{flag, os.Getenv("ALERTER_LOG_LEVEL"), c.LogLevel} {
		if s == "" {
			continue
		}
		if l, err := ParseLevel(s); err == nil {
			return l
		}
	}
	return slog.LevelWarn
}
