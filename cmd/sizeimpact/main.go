// Package main provides the entry point for the sizeimpact CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/Sumatoshi-tech/sizeimpact/cmd/sizeimpact/commands"
	"github.com/Sumatoshi-tech/sizeimpact/pkg/version"
)

func main() {
	version.InitBinaryVersion()

	err := commands.NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
