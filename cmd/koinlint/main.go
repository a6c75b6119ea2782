package main

import (
	"os"

	"koinlint/internal/ui/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
