package ui

import "github.com/charmbracelet/lipgloss"

// Theme holds the colors and styles used across the UI. Styles are built
// from Renderer so tests can render without a terminal.
type Theme struct {
	Renderer *lipgloss.Renderer

	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor
	Subtext   lipgloss.AdaptiveColor
	Text      lipgloss.AdaptiveColor
	Border    lipgloss.AdaptiveColor
	Danger    lipgloss.AdaptiveColor
	Bg        lipgloss.AdaptiveColor
	BgDark    lipgloss.AdaptiveColor

	Selected      lipgloss.Style
	MutedText     lipgloss.Style
	SecondaryText lipgloss.Style
	Panel         lipgloss.Style
	FocusedPanel  lipgloss.Style
}

// DefaultTheme returns the default Dracula-based palette.
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer:  r,
		Primary:   lipgloss.AdaptiveColor{Light: "#7D56F4", Dark: "#BD93F9"},
		Secondary: lipgloss.AdaptiveColor{Light: "#B8860B", Dark: "#F1FA8C"},
		Highlight: lipgloss.AdaptiveColor{Light: "#0086B3", Dark: "#8BE9FD"},
		Muted:     lipgloss.AdaptiveColor{Light: "#9E9E9E", Dark: "#6272A4"},
		Subtext:   lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BFBFBF"},
		Text:      lipgloss.AdaptiveColor{Light: "#000000", Dark: "#f8f8f2"},
		Border:    lipgloss.AdaptiveColor{Light: "#D0D0D0", Dark: "#44475A"},
		Danger:    lipgloss.AdaptiveColor{Light: "#D32F2F", Dark: "#FF5555"},
		Bg:        lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"},
		BgDark:    lipgloss.AdaptiveColor{Light: "#EEEEEE", Dark: "#1E1F29"},
	}

	t.Selected = r.NewStyle().
		Background(lipgloss.AdaptiveColor{Light: "#E8E0FF", Dark: "#44475A"}).
		Bold(true)
	t.MutedText = r.NewStyle().Foreground(t.Muted)
	t.SecondaryText = r.NewStyle().Foreground(t.Highlight)
	t.Panel = r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Border)
	t.FocusedPanel = r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Primary)
	return t
}

// GetKindIcon returns the icon and color for a node kind.
func (t Theme) GetKindIcon(kind string) (string, lipgloss.AdaptiveColor) {
	switch kind {
	case "epic":
		return "◆", t.Primary
	case "task":
		return "▪", t.Highlight
	case "bug":
		return "✖", t.Danger
	case "milestone":
		return "⚑", t.Secondary
	case "note":
		return "✎", t.Subtext
	default:
		return "", t.Muted
	}
}
