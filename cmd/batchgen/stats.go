package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"go-batch-generator/internal/console"
	"go-batch-generator/internal/inventory"
)

var statsCmd = &cobra.Command{
	Use:   "stats <path>",
	Short: "Show format, phase and document type statistics for a directory.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := inventory.Scan(args[0])
		if err != nil {
			return err
		}
		withTree, _ := cmd.Flags().GetBool("tree")
		fmt.Fprintln(cmd.OutOrStdout(), console.RenderInventory(report, withTree))
		return nil
	},
}

func init() {
	statsCmd.Flags().BoolP("tree", "t", false, "Show the directory tree")
}
