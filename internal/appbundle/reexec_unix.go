//go:build unix

package appbundle

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Overridable for testing.
var execFn = unix.Exec

// Reexec replaces the process image with path, keeping argv[1:] and the
// environment.
func Reexec(path string) error {
	args := append([]string{path}, os.Args[1:]...)
	if err := execFn(path, args, os.Environ()); err != nil {
		return fmt.Errorf("failed to re-exec %s: %w", path, err)
	}
	return nil
}
