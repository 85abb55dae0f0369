package main

import (
	"os"

	"github.com/hookpipe/hookpipe/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
