package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/martinemde/diagrams/parser"
)

var detectCmd = &cobra.Command{
	Use:   "detect [file]",
	Short: "Print the kind of every diagram in a file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sources, err := readSources(cmd.InOrStdin(), args)
		if err != nil {
			return err
		}
		for _, seg := range parser.SplitSegments(sources[0].Text) {
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", seg.Start.Line, seg.Kind)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(detectCmd)
}
