package main

import (
	"os"

	"github.com/gridpulse-systems/gridpulse-relay/internal/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
