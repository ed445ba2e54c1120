package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/tidepool/internal/assets"
	"github.com/vovakirdan/tidepool/internal/platform/tui"
)

var (
	flagBrowse bool
	flagDelete string
)

var savesCmd = &cobra.Command{
	Use:   "saves",
	Short: "View save slots and best runs",
	Long: `List save slots and the best finished run of every map. With
--browse the runs open in an interactive board.

Examples:
  tidepool saves
  tidepool saves --assets assets/manifest.yaml --browse
  tidepool saves --delete main`,
	Args: cobra.NoArgs,
	Run:  runSaves,
}

func init() {
	savesCmd.Flags().BoolVar(&flagBrowse, "browse", false, "Browse best runs interactively")
	savesCmd.Flags().StringVar(&flagDelete, "delete", "", "Delete a save slot")
}

func runSaves(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	store := openStore(cfg)
	defer store.Close()

	names := map[uint32]string{}
	if flagAssets != "" {
		names = mapNames(loadManifestFile(flagAssets))
	}
	name := func(id uint32) string {
		if n := names[id]; n != "" {
			return n
		}
		return fmt.Sprintf("map %d", id)
	}

	if flagDelete != "" {
		if err := store.DeleteSlot(flagDelete); err != nil {
			fail("deleting slot %q: %v", flagDelete, err)
		}
		fmt.Printf("Deleted slot %q\n", flagDelete)
		return
	}

	if flagBrowse {
		w, h, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil {
			w, h = 80, 24
		}
		if err := tui.RunBoard(store, names, w, h); err != nil {
			fail("%v", err)
		}
		return
	}

	slots, err := store.ListSlots()
	if err != nil {
		fail("listing slots: %v", err)
	}
	fmt.Println("Save slots")
	fmt.Println()
	if len(slots) == 0 {
		fmt.Println("No saves yet.")
	} else {
		fmt.Printf("  %-12s  %-16s  %-6s  %-8s  %s\n", "Slot", "Map", "Health", "Crystals", "Saved")
		fmt.Printf("  %-12s  %-16s  %-6s  %-8s  %s\n", "----", "---", "------", "--------", "-----")
		for _, s := range slots {
			fmt.Printf("  %-12s  %-16s  %-6d  %-8d  %s\n", s.Slot, name(s.MapID), s.Health, s.Crystals, s.UpdatedAt.Format("2006-01-02 15:04"))
		}
	}
	fmt.Println()

	maps, err := store.RunMaps()
	if err != nil {
		fail("listing runs: %v", err)
	}
	fmt.Println("Best runs")
	fmt.Println()
	if len(maps) == 0 {
		fmt.Println("No runs recorded yet.")
		return
	}
	fmt.Printf("  %-16s  %-8s  %-10s  %s\n", "Map", "Crystals", "Time", "Date")
	fmt.Printf("  %-16s  %-8s  %-10s  %s\n", "---", "--------", "----", "----")
	for _, id := range maps {
		r, ok, err := store.BestRun(id)
		if err != nil {
			fail("reading runs of %s: %v", name(id), err)
		}
		if !ok {
			continue
		}
		fmt.Printf("  %-16s  %-8d  %-10s  %s\n", name(id), r.Crystals, tui.FormatFrames(r.Frames, cfg.Sim.FPS), r.CreatedAt.Format("2006-01-02 15:04"))
	}
}

func loadManifestFile(path string) *assets.Manifest {
	man, err := assets.LoadManifest(path)
	if err != nil {
		fail("loading manifest: %v", err)
	}
	return man
}
