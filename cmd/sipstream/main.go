package main

import (
	"os"

	"github.com/roach88/sipstream/internal/cli"
)

func main() {
	os.Exit(cli.Main())
}
