// main is the entry point for the coverwatch CLI.
package main

import (
	"fmt"
	"os"

	"github.com/huangsam/coverwatch/cmd"
	"github.com/huangsam/coverwatch/internal/contract"
)

// main runs the command tree and maps its error to the process exit code:
// 0 pass, 1 regression or failed gate, 2 analysis error.
func main() {
	if err := cmd.Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "coverwatch: %v\n", err)
		os.Exit(contract.ExitCodeOf(err))
	}
}
