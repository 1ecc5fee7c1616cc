package main

import (
	"os"

	"dipbot/cmd/dipbot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
