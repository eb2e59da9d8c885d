package cmd

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/charmbracelet/fang"
)

// printError reports a command failure the way the tool always has.
func printError(w io.Writer, _ fang.Styles, err error) {
	slog.Debug("command failed", "err", err)
	_, _ = fmt.Fprintf(w, "[!] %s\n", err)
}
