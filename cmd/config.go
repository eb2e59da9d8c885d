package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mblarsen/alerter/internal/config"
)

type configKey struct{}

func loadConfig() (*config.Config, error) {
	path, err := config.ResolveConfigFile(configFlag)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config file: %w", err)
	}
	return config.Load(path)
}

func withConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

func configFrom(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return cfg
	}
	return config.Default()
}

// readMessage reads the message body from in when it is piped. A terminal
// yields "".
func readMessage(in io.Reader) string {
	if f, ok := in.(*os.File); ok {
		stat, err := f.Stat()
		if err != nil || stat.Mode()&os.ModeCharDevice != 0 {
			return ""
		}
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
