package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Build information - these are set via ldflags during build
var (
	version   = "dev"
	buildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("volcano-sim %s (built %s)\n", version, buildDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
