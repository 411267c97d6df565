package main

import (
	"os"

	"github.com/ariel-frischer/changecast/internal/cli"
	"github.com/ariel-frischer/changecast/internal/cli/shared"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(shared.ExitCode(err))
	}
}
