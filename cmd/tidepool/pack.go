package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tidepool/internal/mapasset"
)

var flagOutput string

var packCmd = &cobra.Command{
	Use:   "pack <source.yaml>",
	Short: "Compile a YAML map source",
	Long: `Compile a YAML map source into the binary map format. The output
defaults to the source path with a .tmap extension.

Examples:
  tidepool pack maps/cove.yaml
  tidepool pack maps/cove.yaml -o build/cove.tmap`,
	Args: cobra.ExactArgs(1),
	Run:  runPack,
}

func init() {
	packCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Output path")
}

func runPack(cmd *cobra.Command, args []string) {
	src := args[0]
	a, err := mapasset.LoadSource(src)
	if err != nil {
		fail("compiling %s: %v", src, err)
	}
	data, err := mapasset.Encode(a)
	if err != nil {
		fail("encoding %s: %v", src, err)
	}

	out := flagOutput
	if out == "" {
		out = strings.TrimSuffix(src, filepath.Ext(src)) + ".tmap"
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		fail("writing %s: %v", out, err)
	}
	fmt.Printf("Wrote %s (%d bytes, %d scripts, %d spawns)\n", out, len(data), len(a.Scripts), len(a.Spawns))
}
