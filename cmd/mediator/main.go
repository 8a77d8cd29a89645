// Command mediator runs the workflow mediator process: it loads workflow
// definitions, provisions bus topics, and drives runs to completion until
// the process receives a shutdown signal (§6 Process Surface).
package main

import (
	"os"
)

func main() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
