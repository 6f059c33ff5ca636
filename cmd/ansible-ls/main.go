package main

import (
	"os"

	"github.com/ansible-tools/ansible-ls/internal/cli/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
