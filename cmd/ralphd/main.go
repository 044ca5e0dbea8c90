package main

import (
	"os"

	"github.com/ralphcore/ralph/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
