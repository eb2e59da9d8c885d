//go:build unix

package appbundle

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReexec(t *testing.T) {
	original := execFn
	defer func() { execFn = original }()

	var gotPath string
	var gotArgs []string
	execFn = func(path string, args []string, env []string) error {
		gotPath, gotArgs = path, args
		return errors.New("exec format error")
	}

	err := Reexec("/tmp/alerter.app/Contents/MacOS/alerter")
	assert.ErrorContains(t, err, "exec format error")
	assert.Equal(t, "/tmp/alerter.app/Contents/MacOS/alerter", gotPath)
	assert.Equal(t, append([]string{gotPath}, os.Args[1:]...), gotArgs)
}
