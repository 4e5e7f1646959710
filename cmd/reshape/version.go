// Version command for the reshape CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/reshape/pkg/reshape"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the reshape version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("reshape", reshape.Version)
	},
}
