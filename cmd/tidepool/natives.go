package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tidepool/internal/sim"
)

var nativesCmd = &cobra.Command{
	Use:   "natives",
	Short: "List script natives",
	Long: `List the natives scripts can call with exec, by id.

Examples:
  tidepool natives`,
	Args: cobra.NoArgs,
	Run:  runNatives,
}

func runNatives(cmd *cobra.Command, args []string) {
	list := sim.Natives()
	fmt.Println("Script natives:")
	fmt.Println()
	for _, n := range list {
		fmt.Printf("  %-4d  %s\n", n.ID, n.Name)
	}
	fmt.Println()
	fmt.Printf("Total: %d natives\n", len(list))
}
