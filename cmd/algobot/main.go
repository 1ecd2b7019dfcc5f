package main

import (
	"os"

	"algo-trader/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
