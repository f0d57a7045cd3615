package help

import (
	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ceprince/packing-list/internal/keys"
	"github.com/ceprince/packing-list/internal/model"
	"github.com/ceprince/packing-list/internal/theme"
)

// Model is the help overlay: the full keybinding table plus a legend for
// the three packing markers.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	width  int
	height int
}

// New creates a new help view model.
func New(keys *keys.KeyMap, width, height int) Model {
	h := help.New()
	h.Width = width
	return Model{
		keys:   keys,
		help:   h,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the help overlay.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	title := titleStyle.Render("Keyboard Shortcuts")

	m.help.Width = m.width - 4
	m.help.ShowAll = true
	helpText := m.help.View(m.keys)

	content := lipgloss.JoinVertical(lipgloss.Left,
		title,
		helpText,
		"",
		m.renderLegend(),
	)

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(content)
}

// renderLegend explains the marker colors on the checklist.
func (m Model) renderLegend() string {
	dot := func(marker model.Marker) string {
		return theme.MarkerStyle(marker).Render("●")
	}
	legend := lipgloss.JoinVertical(lipgloss.Left,
		dot(model.MarkerRed)+" still needed",
		dot(model.MarkerYellow)+" on the needed list",
		dot(model.MarkerGreen)+" packed or bought",
	)
	return theme.HelpStyle.Render("Markers") + "\n" + legend
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
