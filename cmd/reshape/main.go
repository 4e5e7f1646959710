// Package main provides the reshape CLI: it plans and applies schema
// migrations that move a SQLite database toward a declarative schema
// definition.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
