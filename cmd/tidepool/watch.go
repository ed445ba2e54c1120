package main

import (
	"github.com/spf13/cobra"

	"github.com/vovakirdan/tidepool/internal/platform/tui"
)

var watchCmd = &cobra.Command{
	Use:   "watch <map>",
	Short: "Run a map in the interactive monitor",
	Long: `Run a map in a full screen terminal monitor. The world view follows
the camera; wide terminals also show live actor and script tables.

Controls:
  arrows/wasd  move
  space        jump
  enter        talk / page dialogs
  p            pause
  q            quit

Examples:
  tidepool watch maps/cove.tmap
  tidepool watch maps/cove.tmap --assets assets/manifest.yaml --slot main`,
	Args: cobra.ExactArgs(1),
	Run:  runWatch,
}

func runWatch(cmd *cobra.Command, args []string) {
	sess := startSession(args[0])
	defer sess.Close()

	if err := tui.Run(sess, loadConfig().Sim.FPS); err != nil {
		fail("%v", err)
	}
}
