package xdgpath

import (
	"fmt"
	"os"
	"path/filepath"
)

const appName = "alerter"

func getConfigHome() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return configHome, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not get user home directory: %w", err)
	}
	return filepath.Join(home, ".config"), nil
}

func getDataHome() (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return dataHome, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not get user home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share"), nil
}

// ConfigPath returns the path for a config file. The directory is not created.
func ConfigPath(elem ...string) (string, error) {
	base, err := getConfigHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(append([]string{base, appName}, elem...)...), nil
}

// SupportPath returns the path for generated support files such as the
// wrapper app bundle, creating the directory if needed.
func SupportPath(elem ...string) (string, error) {
	base, err := getDataHome()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(base, appName)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}
	return filepath.Join(append([]string{dir}, elem...)...), nil
}
