package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/ceprince/packing-list/internal/model"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue   = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen  = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed    = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorGray   = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite  = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for top-level section headers and the application title.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// BreadcrumbStyle renders the ancestry trail above each page.
var BreadcrumbStyle = lipgloss.NewStyle().
	Foreground(ColorGray)

// BreadcrumbCurrentStyle highlights the trailing (current) crumb.
var BreadcrumbCurrentStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite)

// MessageStyle renders a page's optional message block.
var MessageStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true).
	PaddingLeft(2)

// DetailPanelStyle wraps full-screen panel content such as the help overlay.
var DetailPanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// ListItemStyle is the base style for items in a list.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// SelectedItemStyle highlights the currently focused list item.
var SelectedItemStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Bold(true).
	Foreground(ColorBlue).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorBlue)

// CrossedOffStyle renders resolved rows and queue entries.
var CrossedOffStyle = lipgloss.NewStyle().
	Strikethrough(true).
	Foreground(ColorGray)

// NotesStyle renders an expanded notes row under its item.
var NotesStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	PaddingLeft(6)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// BorderStyle provides a standard rounded border for panels.
var BorderStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// MarkerStyle returns the color-coded style for a completion marker.
func MarkerStyle(m model.Marker) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch m {
	case model.MarkerGreen:
		return base.Foreground(ColorGreen)
	case model.MarkerYellow:
		return base.Foreground(ColorYellow)
	default:
		return base.Foreground(ColorRed)
	}
}

// CategoryStyle returns a color-coded style for an item's category column.
func CategoryStyle(category string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch category {
	case model.CategoryMandatory:
		return base.Foreground(ColorRed)
	case model.CategoryRecommended:
		return base.Foreground(ColorOrange)
	default:
		return base.Foreground(ColorGray)
	}
}
