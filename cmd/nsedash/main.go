package main

import (
	"os"

	"nse-dashboard/cmd/nsedash/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
