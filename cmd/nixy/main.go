package main

import (
	"os"

	"github.com/nixydotdev/nixy/internal/cli"
	"github.com/nixydotdev/nixy/internal/rollback"
	"github.com/nixydotdev/nixy/internal/ui"
)

func main() {
	rollback.InstallSignalHandler()

	if err := cli.Execute(); err != nil {
		ui.Error(err.Error())
		os.Exit(1)
	}
}
