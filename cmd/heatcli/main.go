package main

import (
	"os"

	"github.com/couchcryptid/heat-emissions/internal/cli"
)

var version = "dev"

func main() {
	if err := cli.NewRootCmd(version).Execute(); err != nil {
		os.Exit(1)
	}
}
