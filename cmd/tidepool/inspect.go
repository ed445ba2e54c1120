package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/tidepool/internal/bytecode"
	"github.com/vovakirdan/tidepool/internal/mapasset"
)

var flagNoScripts bool

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <map>",
	Short: "Describe a map file",
	Long: `Print the header, section sizes, spawn list and disassembled scripts
of a binary map or YAML map source.

Examples:
  tidepool inspect maps/cove.tmap
  tidepool inspect maps/cove.yaml --no-scripts`,
	Args: cobra.ExactArgs(1),
	Run:  runInspect,
}

func init() {
	inspectCmd.Flags().BoolVar(&flagNoScripts, "no-scripts", false, "Skip script listings")
}

func field(label, format string, args ...any) string {
	return labelStyle.Render(label) + fmt.Sprintf(format, args...) + "\n"
}

func runInspect(cmd *cobra.Command, args []string) {
	a, err := mapasset.Open(args[0])
	if err != nil {
		fail("loading map %s: %v", args[0], err)
	}
	fmt.Print(describe(args[0], a))
}

// describe renders the inspect report of a.
func describe(name string, a *mapasset.Asset) string {
	var b strings.Builder

	b.WriteString(headingStyle.Render(name) + "\n\n")
	b.WriteString(field("Bounds", "%d,%d  %dx%d chunks", a.LowerX, a.LowerY, a.Width, a.Height))
	b.WriteString(field("Camera", "%d, %d", a.CameraX, a.CameraY))
	b.WriteString(field("Parallax", "%d, %d", a.ParallaxX, a.ParallaxY))
	if a.HasWater() {
		b.WriteString(field("Water", "line %d  color #%06x", a.WaterLine, a.WaterColor.Uint32()>>8))
	} else {
		b.WriteString(field("Water", "none"))
	}
	b.WriteString(field("Gravity", "%g, %g", a.GravityX, a.GravityY))
	b.WriteString(field("Music", "%d", a.Music))
	if a.Startup == bytecode.InvalidScript {
		b.WriteString(field("Startup", "none"))
	} else {
		b.WriteString(field("Startup", "script %d", a.Startup))
	}
	b.WriteString("\n")

	b.WriteString(headingStyle.Render("Sections") + "\n")
	b.WriteString(field("Tilesets", "%d", len(a.Tilesets)))
	b.WriteString(field("Backgrounds", "%d", len(a.Backgrounds)))
	b.WriteString(field("Chunks", "%d", len(a.Chunks)))
	b.WriteString(field("Waypoints", "%d", len(a.Waypoints)))
	b.WriteString(field("Texts", "%d", len(a.Texts)))
	b.WriteString(field("Scripts", "%d", len(a.Scripts)))
	b.WriteString(field("Spawns", "%d (%d at load)", len(a.Spawns), a.SpawnInit))
	if a.Collision != nil {
		b.WriteString(field("Collision", "%d shapes", len(a.Collision.Shapes)))
	}
	b.WriteString("\n")

	if len(a.Spawns) > 0 {
		b.WriteString(headingStyle.Render("Spawns") + "\n")
		b.WriteString(dimStyle.Render(fmt.Sprintf("  %-4s  %-5s  %-14s  %-8s  %-8s  %s", "#", "ID", "Type", "X", "Y", "Flags")) + "\n")
		for i, s := range a.Spawns {
			line := fmt.Sprintf("  %-4d  %-5d  %-14s  %-8d  %-8d  %#x", i, s.ID, s.Type, s.X, s.Y, uint32(s.Flags))
			if i >= a.SpawnInit {
				line = dimStyle.Render(line)
			}
			b.WriteString(line + "\n")
		}
		b.WriteString("\n")
	}

	if flagNoScripts {
		return b.String()
	}
	for id, prog := range a.Scripts {
		b.WriteString(headingStyle.Render(fmt.Sprintf("Script %d", id)) + dimStyle.Render(fmt.Sprintf("  %d instructions", len(prog))) + "\n")
		for pc, in := range prog {
			fmt.Fprintf(&b, "  %s  %s\n", dimStyle.Render(fmt.Sprintf("%4d", pc)), bytecode.Format(in))
		}
		b.WriteString("\n")
	}
	return b.String()
}
