//go:build !darwin

package cmd

import "github.com/mblarsen/alerter/internal/config"

// ensureBundle is a no-op: only macOS attributes notifications to app bundles.
var ensureBundle = func(cfg *config.Config, sender string) error {
	return nil
}
