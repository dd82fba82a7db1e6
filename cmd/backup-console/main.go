package main

import (
	"os"

	"backup-console/src/cli"
)

func main() {
	os.Exit(cli.Execute())
}
