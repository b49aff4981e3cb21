// cmd/dealdesk/main.go
//
// This is the entry point for the dealdesk CLI.
// Running `dealdesk` with no subcommand opens the TUI for the current
// project; the subcommands print or prepare the project's records.

package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
