package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/tidepool/internal/core"
)

// paletteStyles maps core.Palette to lipgloss styles.
var paletteStyles = map[core.Palette]lipgloss.Style{
	core.PaletteDefault: lipgloss.NewStyle(),
	core.PaletteRed:     lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	core.PaletteGreen:   lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
	core.PaletteYellow:  lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	core.PaletteBlue:    lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
	core.PaletteMagenta: lipgloss.NewStyle().Foreground(lipgloss.Color("13")),
	core.PaletteCyan:    lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
	core.PaletteWhite:   lipgloss.NewStyle().Foreground(lipgloss.Color("15")),
	core.PaletteOrange:  lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
	core.PaletteGray:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
}

// RenderScreen converts a Screen buffer to a styled string for display.
// Groups adjacent cells with the same color to minimize ANSI escape sequences.
func RenderScreen(s *core.Screen) string {
	var sb strings.Builder
	sb.Grow(s.Width()*s.Height()*2 + s.Height())

	for y := range s.Height() {
		if y > 0 {
			sb.WriteRune('\n')
		}

		row := s.Row(y)
		for x := 0; x < len(row); {
			color := row[x].Color
			var run strings.Builder
			for x < len(row) && row[x].Color == color {
				run.WriteRune(row[x].Rune)
				x++
			}

			style, ok := paletteStyles[color]
			if !ok {
				style = paletteStyles[core.PaletteDefault]
			}
			sb.WriteString(style.Render(run.String()))
		}
	}
	return sb.String()
}
