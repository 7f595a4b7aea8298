// Package render turns a usage report into styled terminal output. Every
// function here is data in, string out; the CLI subcommands and the TUI
// both draw through it.
package render

import "github.com/charmbracelet/lipgloss"

// ─── Color Palette (Catppuccin Mocha) ───────────────────────────────────────

var (
	// Base tones
	colorSurface1 = lipgloss.Color("#45475A") // bar tracks
	colorText     = lipgloss.Color("#CDD6F4") // primary text
	colorSubtext  = lipgloss.Color("#A6ADC8") // secondary text
	colorDim      = lipgloss.Color("#585B70") // muted

	// Accents
	colorMauve     = lipgloss.Color("#CBA6F7")
	colorBlue      = lipgloss.Color("#89B4FA")
	colorSapphire  = lipgloss.Color("#74C7EC")
	colorGreen     = lipgloss.Color("#A6E3A1")
	colorYellow    = lipgloss.Color("#F9E2AF")
	colorRed       = lipgloss.Color("#F38BA8")
	colorPeach     = lipgloss.Color("#FAB387")
	colorTeal      = lipgloss.Color("#94E2D5")
	colorRosewater = lipgloss.Color("#F5E0DC")
	colorLavender  = lipgloss.Color("#B4BEFE")
	colorSky       = lipgloss.Color("#89DCEB")
)

// ─── Accent Selection ───────────────────────────────────────────────────────

// accentColors maps the accent names accepted in settings to palette colors.
var accentColors = map[string]lipgloss.Color{
	"mauve":    colorMauve,
	"blue":     colorBlue,
	"sapphire": colorSapphire,
	"teal":     colorTeal,
	"green":    colorGreen,
	"yellow":   colorYellow,
	"peach":    colorPeach,
	"red":      colorRed,
	"lavender": colorLavender,
	"sky":      colorSky,
}

// accentOrder fixes the cycling order for the TUI accent toggle.
var accentOrder = []string{
	"mauve", "blue", "sapphire", "teal", "green",
	"yellow", "peach", "red", "lavender", "sky",
}

// AccentColor resolves an accent name from settings. Unknown names fall
// back to mauve so a hand-edited settings file cannot break rendering.
func AccentColor(name string) lipgloss.Color {
	if c, ok := accentColors[name]; ok {
		return c
	}
	return colorMauve
}

// AccentNames returns the accent names in cycling order.
func AccentNames() []string {
	return accentOrder
}

// ─── Reusable Styles ────────────────────────────────────────────────────────

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorLavender)

	sectionHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorBlue)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorSubtext)

	valueStyle = lipgloss.NewStyle().
			Foreground(colorText)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	metricValueStyle = lipgloss.NewStyle().
				Foreground(colorRosewater).
				Bold(true)

	tealStyle = lipgloss.NewStyle().
			Foreground(colorTeal)

	greenStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	chartAxisStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	trackStyle = lipgloss.NewStyle().
			Foreground(colorSurface1)
)

// modelColorPalette cycles through colors for the model breakdown rows.
var modelColorPalette = []lipgloss.Color{
	colorPeach, colorTeal, colorSapphire, colorGreen,
	colorYellow, colorLavender, colorSky, colorMauve,
}

// ModelColor returns a color for a model row by its index.
func ModelColor(idx int) lipgloss.Color {
	if idx < 0 {
		idx = 0
	}
	return modelColorPalette[idx%len(modelColorPalette)]
}
