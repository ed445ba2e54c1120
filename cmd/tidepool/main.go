// tidepool runs water-world maps in the terminal.
//
// Usage:
//
//	tidepool run <map>         - Run a map headless for a number of frames
//	tidepool watch <map>       - Run a map in the interactive monitor
//	tidepool inspect <map>     - Print the header, spawns and scripts of a map
//	tidepool pack <src.yaml>   - Compile a YAML map source to a binary map
//	tidepool natives           - List the registered script natives
//	tidepool saves             - Show save slots and best runs
//
// Global flags:
//
//	--config <path>     - Engine config file (default: search path, then built-in)
//	--db <path>         - Save database (default: storage.db from config)
//	--assets <path>     - Asset manifest (default: empty manifest next to the map)
//	--seed <value>      - RNG seed (0 = based on time)
//	--log-level <lvl>   - debug, info, warn or error
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/tidepool/internal/assets"
	"github.com/vovakirdan/tidepool/internal/config"
	"github.com/vovakirdan/tidepool/internal/storage"
)

var (
	// Global flags
	flagConfig   string
	flagDBPath   string
	flagAssets   string
	flagSeed     uint64
	flagLogLevel string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tidepool",
	Short: "Tidepool - run scripted water-world maps in your terminal",
	Long: `Tidepool loads binary or YAML maps, runs their actors, physics and
scripts at a fixed tick rate and shows them in the terminal.

Available commands:
  run      - Run a map headless
  watch    - Run a map in the interactive monitor
  inspect  - Describe a map file
  pack     - Compile a YAML map source
  natives  - List script natives
  saves    - View save slots and best runs

Examples:
  tidepool run maps/cove.yaml --frames 600
  tidepool watch maps/cove.tmap --assets assets/manifest.yaml --slot main
  tidepool inspect maps/cove.tmap
  tidepool pack maps/cove.yaml -o maps/cove.tmap
  tidepool saves`,
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Engine config file")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to save database (default from config)")
	rootCmd.PersistentFlags().StringVar(&flagAssets, "assets", "", "Path to asset manifest")
	rootCmd.PersistentFlags().Uint64Var(&flagSeed, "seed", 0, "RNG seed (0 = random based on time)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	// Add subcommands
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(packCmd)
	rootCmd.AddCommand(nativesCmd)
	rootCmd.AddCommand(savesCmd)
}

// fail prints an error and exits.
func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

func newLogger() *log.Logger {
	level, err := log.ParseLevel(flagLogLevel)
	if err != nil {
		fail("invalid log level %q", flagLogLevel)
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		Prefix:          "tidepool",
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	})
}

func loadConfig() config.Engine {
	cfg, err := config.LoadEngine(flagConfig)
	if err != nil {
		fail("loading config: %v", err)
	}
	return cfg
}

// seed returns the --seed value, or a time based one.
func seed() uint64 {
	if flagSeed != 0 {
		return flagSeed
	}
	return uint64(time.Now().UnixNano())
}

// loadManifest reads --assets, or roots an empty manifest at the map's
// directory.
func loadManifest(mapPath string) *assets.Manifest {
	if flagAssets == "" {
		return assets.NewManifest(filepath.Dir(mapPath))
	}
	return loadManifestFile(flagAssets)
}

func openStore(cfg config.Engine) *storage.Store {
	path := flagDBPath
	if path == "" {
		path = cfg.Storage.DB
	}
	store, err := storage.Open(path)
	if err != nil {
		fail("opening save database: %v", err)
	}
	return store
}

// mapNames labels manifest map ids for listings.
func mapNames(man *assets.Manifest) map[uint32]string {
	names := make(map[uint32]string, len(man.Maps))
	for id, e := range man.Maps {
		names[id] = e.Name
	}
	return names
}
