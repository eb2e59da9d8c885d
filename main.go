package main

import (
	"os"

	"github.com/mblarsen/alerter/cmd"
	"github.com/mblarsen/alerter/internal/platform"
)

func main() {
	os.Exit(platform.RunMain(cmd.Execute))
}
