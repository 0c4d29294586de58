package main

import (
	"os"

	"github.com/goliatone/go-formstate/cmd/formstate-cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
