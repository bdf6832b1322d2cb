package main

import (
	"os"

	"github.com/nmslite/check-cluster/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
