// chorechat - command line client for the family chore assistant
package main

import (
	"fmt"
	"os"

	"github.com/ashureev/chorechat/internal/cli"
	"github.com/joho/godotenv"
)

// Set by ldflags at build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	_ = godotenv.Load()
	cli.SetVersionInfo(version, commit)

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
