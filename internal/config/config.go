package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/mblarsen/alerter/internal/xdgpath"
)

const (
	DefaultSender      = "fr.vjeantet.alerter"
	DefaultTitle       = "Terminal"
	DefaultListTimeout = 3 * time.Second
	DefaultDismissPoll = 200 * time.Millisecond
	DefaultLogLevel    = "warn"
)

// Config holds the user defaults read from config.toml (or config.yaml).
type Config struct {
	Sender      string
	Title       string
	Sound       string
	Timeout     int
	JSON        bool
	IgnoreDnD   bool
	ListTimeout time.Duration
	DismissPoll time.Duration
	LogLevel    string
	AppBundle   bool
	// Path is the file the values were read from, empty for defaults.
	Path string
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Sender:      DefaultSender,
		Title:       DefaultTitle,
		ListTimeout: DefaultListTimeout,
		DismissPoll: DefaultDismissPoll,
		LogLevel:    DefaultLogLevel,
		AppBundle:   true,
	}
}

type rawConfig struct {
	Sender      string `toml:"sender" yaml:"sender"`
	Title       string `toml:"title" yaml:"title"`
	Sound       string `toml:"sound" yaml:"sound"`
	Timeout     int    `toml:"timeout" yaml:"timeout"`
	JSON        bool   `toml:"json" yaml:"json"`
	IgnoreDnD   bool   `toml:"ignore_dnd" yaml:"ignore_dnd"`
	ListTimeout string `toml:"list_timeout" yaml:"list_timeout"`
	DismissPoll string `toml:"dismiss_poll" yaml:"dismiss_poll"`
	LogLevel    string `toml:"log_level" yaml:"log_level"`
	AppBundle   *bool  `toml:"app_bundle" yaml:"app_bundle"`
}

// ResolveConfigFile determines the path to the config file. The flag wins,
// then ALERTER_CONFIG, then the first of config.toml, config.yaml and
// config.yml found in the config directory.
func ResolveConfigFile(configFlag string) (string, error) {
	if configFlag != "" {
		return configFlag, nil
	}
	if env := os.Getenv("ALERTER_CONFIG"); env != "" {
		return env, nil
	}
	var first string
	for _, name := range []string{"config.toml", "config.yaml", "config.yml"} {
		path, err := xdgpath.ConfigPath(name)
		if err != nil {
			return "", err
		}
		if first == "" {
			first = path
		}
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return first, nil
}

// Load reads the file at path over the defaults. A missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	var raw rawConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		_, err = toml.Decode(string(data), &raw)
	}
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}

	if raw.Sender != "" {
		cfg.Sender = raw.Sender
	}
	if raw.Title != "" {
		cfg.Title = raw.Title
	}
	cfg.Sound = raw.Sound
	cfg.JSON = raw.JSON
	cfg.IgnoreDnD = raw.IgnoreDnD
	if raw.AppBundle != nil {
		cfg.AppBundle = *raw.AppBundle
	}

	if raw.Timeout < 0 {
		return nil, fmt.Errorf("config: timeout: must not be negative")
	}
	cfg.Timeout = raw.Timeout

	if cfg.ListTimeout, err = duration("list_timeout", raw.ListTimeout, cfg.ListTimeout); err != nil {
		return nil, err
	}
	if cfg.ListTimeout == 0 {
		return nil, fmt.Errorf("config: list_timeout: must be positive")
	}
	if cfg.DismissPoll, err = duration("dismiss_poll", raw.DismissPoll, cfg.DismissPoll); err != nil {
		return nil, err
	}

	if raw.LogLevel != "" {
		if _, err := ParseLevel(raw.LogLevel); err != nil {
			return nil, fmt.Errorf("config: log_level: %w", err)
		}
		cfg.LogLevel = raw.LogLevel
	}

	cfg.Path = path
	return cfg, nil
}

func duration(key, value string, def time.Duration) (time.Duration, error) {
	if value == "" {
		return def, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("config: %s: invalid duration %q", key, value)
	}
	return d, nil
}
