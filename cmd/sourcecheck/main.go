// Package main is the entry point for the sourcecheck CLI.
package main

import "github.com/wexinc/sourcecheck/cmd/sourcecheck/cmd"

// Set by ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cmd.Version = version
	cmd.Commit = commit
	cmd.Date = date
	cmd.Execute()
}
