// Package fileutil holds the file helpers used to maintain the wrapper app
// bundle on disk.
package fileutil

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
)

// WriteIfChanged atomically replaces filename with data and mode perm,
// creating parent directories as needed. A file that already holds data with
// mode perm is left alone. It reports whether anything was written.
func WriteIfChanged(filename string, data []byte, perm os.FileMode) (bool, error) {
	if unchanged(filename, data, perm) {
		return false, nil
	}

	dir, name := filepath.Split(filename)
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return false, err
	}

	tmp, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return false, err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return false, err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return false, err
	}
	if err := tmp.Close(); err != nil {
		return false, err
	}
	if err := os.Chmod(tmp.Name(), perm); err != nil {
		return false, err
	}
	if err := os.Rename(tmp.Name(), filename); err != nil {
		return false, err
	}
	return true, nil
}

// CopyFile copies src to dst through WriteIfChanged.
func CopyFile(src, dst string, perm os.FileMode) (bool, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return false, fmt.Errorf("could not read '%s': %w", src, err)
	}
	changed, err := WriteIfChanged(dst, data, perm)
	if err != nil {
		return false, fmt.Errorf("could not write '%s': %w", dst, err)
	}
	return changed, nil
}

func unchanged(filename string, data []byte, perm os.FileMode) bool {
	info, err := os.Stat(filename)
	if err != nil || !info.Mode().IsRegular() || info.Mode().Perm() != perm {
		return false
	}
	existing, err := os.ReadFile(filename)
	return err == nil && bytes.Equal(existing, data)
}
