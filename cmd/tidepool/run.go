package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tidepool/internal/core"
	"github.com/vovakirdan/tidepool/internal/mapasset"
	"github.com/vovakirdan/tidepool/internal/session"
	"github.com/vovakirdan/tidepool/internal/sim"
)

var (
	flagFrames uint64
	flagSlot   string
	flagMapID  uint32
)

// dialogHold is how many frames a fully shown dialog page stays up
// before a headless run pages it.
const dialogHold = 30

var runCmd = &cobra.Command{
	Use:   "run <map>",
	Short: "Run a map headless",
	Long: `Run a map without a display for a fixed number of frames, or until
it ends. Dialogs are paged automatically. Map transitions are followed
through the asset manifest.

Examples:
  tidepool run maps/cove.tmap
  tidepool run maps/cove.yaml --frames 3600 --seed 42
  tidepool run maps/cove.tmap --assets assets/manifest.yaml --slot main --map-id 1`,
	Args: cobra.ExactArgs(1),
	Run:  runRun,
}

func init() {
	for _, c := range []*cobra.Command{runCmd, watchCmd} {
		c.Flags().StringVar(&flagSlot, "slot", "", "Save slot to restore and write")
		c.Flags().Uint32Var(&flagMapID, "map-id", 0, "Manifest id of the map")
	}
	runCmd.Flags().Uint64Var(&flagFrames, "frames", 600, "Frames to run (0 = until the map ends)")
}

// startSession opens everything a session needs for the map at path.
func startSession(path string) *session.Session {
	logger := newLogger()
	cfg := loadConfig()

	asset, err := mapasset.Open(path)
	if err != nil {
		fail("loading map %s: %v", path, err)
	}

	sess, err := session.Start(asset, session.Options{
		Logger:   logger,
		Config:   cfg,
		Manifest: loadManifest(path),
		Store:    openStore(cfg),
		Slot:     flagSlot,
		Seed:     seed(),
		MapID:    flagMapID,
	})
	if err != nil {
		fail("starting %s: %v", path, err)
	}
	return sess
}

func runRun(cmd *cobra.Command, args []string) {
	sess := startSession(args[0])
	defer sess.Close()

	held := 0
	for flagFrames == 0 || sess.Frames() < flagFrames {
		status, err := sess.Step(core.NewInputFrame())
		if err != nil {
			fmt.Printf("stopped after %d frames\n", sess.Frames())
			fail("%v", err)
		}
		if status == sim.StatusEnding {
			break
		}

		if d, ok := sess.Map().Dialog(); ok && d.Shown >= len(d.Text) {
			held++
			if held >= dialogHold {
				sess.Map().AdvanceDialog()
				held = 0
			}
		} else {
			held = 0
		}
	}

	st := sess.Map().Stats()
	as := sess.Mixer().Stats()
	fmt.Printf("Map %d after %d frames\n", sess.MapID(), sess.Frames())
	fmt.Println()
	fmt.Printf("  %-12s %d live, %d dead\n", "Actors", st.Live, st.Dead)
	fmt.Printf("  %-12s %d\n", "Scripts", st.Scripts)
	fmt.Printf("  %-12s %d\n", "Particles", st.Particles)
	fmt.Printf("  %-12s %d\n", "Props", st.Props)
	fmt.Printf("  %-12s %.0f, %.0f\n", "Camera", st.CameraX, st.CameraY)
	fmt.Printf("  %-12s %#x\n", "State", uint32(st.State))
	fmt.Printf("  %-12s %d played, %d stolen, %d dropped\n", "Sounds", as.Played, as.Stolen, as.Dropped)
	fmt.Printf("  %-12s %d\n", "Saves", sess.Saves())
	if sess.Ended() {
		fmt.Println()
		if id := sess.RunID(); id != 0 {
			fmt.Printf("The end. Run #%d recorded.\n", id)
		} else {
			fmt.Println("The end.")
		}
	}
}
