package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// Set at build time with -ldflags "-X main.version=...".
var (
	version   = "0.1.0-dev"
	gitCommit = ""
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		v := color.New(color.FgGreen, color.Bold).Sprint(version)
		if gitCommit != "" {
			v += " (" + color.New(color.FgYellow).Sprint(gitCommit) + ")"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "diagrams %s\n", v)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
