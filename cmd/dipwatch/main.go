package main

import (
	"os"

	"github.com/dipwatch/dipwatch/cmd/dipwatch/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
