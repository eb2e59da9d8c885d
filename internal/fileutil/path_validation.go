package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// IsPathInsideRoot reports whether path is root or lies below it. Symlinks
// are resolved on both sides as far as the paths exist.
func IsPathInsideRoot(root, path string) (bool, error) {
	absRoot, err := resolve(root)
	if err != nil {
		return false, fmt.Errorf("could not resolve root '%s': %w", root, err)
	}
	absPath, err := resolve(path)
	if err != nil {
		return false, fmt.Errorf("could not resolve path '%s': %w", path, err)
	}

	if filepath.VolumeName(absRoot) != filepath.VolumeName(absPath) {
		return false, nil
	}
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil {
		return false, fmt.Errorf("could not get relative path: %w", err)
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)), nil
}

// resolve makes p absolute and evaluates symlinks in its longest existing
// prefix.
func resolve(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	var rest []string
	cur := abs
	for {
		real, err := filepath.EvalSymlinks(cur)
		if err == nil {
			return filepath.Join(append([]string{real}, rest...)...), nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return abs, nil
		}
		rest = append([]string{filepath.Base(cur)}, rest...)
		cur = parent
	}
}
