//go:build !unix

package appbundle

import "errors"

// Reexec is not supported without exec(2).
func Reexec(path string) error {
	return errors.New("re-exec is not supported on this platform")
}
