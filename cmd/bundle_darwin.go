//go:build darwin

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mblarsen/alerter/internal/appbundle"
	"github.com/mblarsen/alerter/internal/config"
	"github.com/mblarsen/alerter/internal/xdgpath"
)

// ensureBundle re-executes the process from the wrapper app bundle unless it
// already runs from an app. It only returns when no re-exec happened.
var ensureBundle = func(cfg *config.Config, sender string) error {
	if !cfg.AppBundle || appbundle.Disabled() {
		return nil
	}
	exe, err := os.Executable()
	if err != nil {
		return err
	}
	if exe, err = filepath.EvalSymlinks(exe); err != nil {
		return err
	}
	if appbundle.InApp(exe) {
		return nil
	}

	dir, err := xdgpath.SupportPath(appbundle.Name)
	if err != nil {
		return fmt.Errorf("failed to get support path: %w", err)
	}
	b := appbundle.Bundle{Dir: dir, Identifier: sender, Version: version}
	if b.Contains(exe) {
		return nil
	}
	if _, err := b.Ensure(exe); err != nil {
		return err
	}
	return appbundle.Reexec(b.ExecutablePath())
}
