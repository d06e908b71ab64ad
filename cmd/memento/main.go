// Package main provides the entry point for the memento CLI.
package main

import (
	"fmt"
	"os"

	"github.com/Git-on-my-level/memento-protocol-sub004/cmd/memento/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
