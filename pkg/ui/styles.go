package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/wellradar/pkg/layout"
)

// ══════════════════════════════════════════════════════════════════════════════
// COLOR PALETTE - Adaptive colors for light and dark terminals
// ══════════════════════════════════════════════════════════════════════════════

var (
	ColorText      = lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#F8F8F2"}
	ColorSubtext   = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BFBFBF"}
	ColorMuted     = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#6272A4"}
	ColorPrimary   = lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"}
	ColorSuccess   = lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}
	ColorDanger    = lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"}
	ColorHighlight = lipgloss.AdaptiveColor{Light: "#D0D0D0", Dark: "#44475A"}
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	SelectedStyle = lipgloss.NewStyle().
			Background(ColorHighlight).
			Foreground(ColorText)

	HelpStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	StatusStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorDanger).
			Bold(true)

	// PanelStyle frames the editor.
	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorHighlight).
			Padding(0, 1)
)

const (
	barActive   = "█"
	barInactive = "░"
)

// RenderBar draws one sector's strength as a strip of cells, colored the
// way the chart colors the bars: active cells in the sector color, the
// rest in the inactive color.
func RenderBar(strength int, cfg layout.Config) string {
	if strength < 0 {
		strength = 0
	}
	if strength > cfg.MaxStrength {
		strength = cfg.MaxStrength
	}
	active := lipgloss.NewStyle().Foreground(ThemeFg(layout.Hex(cfg.SectorColor(strength))))
	inactive := lipgloss.NewStyle().Foreground(ThemeFg(layout.Hex(cfg.InactiveColor)))

	var sb strings.Builder
	if strength > 0 {
		sb.WriteString(active.Render(strings.Repeat(barActive, strength)))
	}
	if rest := cfg.MaxStrength - strength; rest > 0 {
		sb.WriteString(inactive.Render(strings.Repeat(barInactive, rest)))
	}
	return sb.String()
}

// RenderPercent colors a percentage on the aggregate red → green ramp.
func RenderPercent(pct int) string {
	return lipgloss.NewStyle().
		Foreground(ThemeFg(layout.Hex(layout.AggregateColor(pct)))).
		Bold(true).
		Render(padLeft(itoa(pct)+"%", 4))
}
