package main

import (
	"fmt"
	"os"

	"github.com/benvon/blog-api/cmd/configure/commands"
)

func main() {
	if err := commands.NewRootCmd(commands.OpenFromEnv).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
