package navpage

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ceprince/packing-list/internal/catalog"
	"github.com/ceprince/packing-list/internal/keys"
	"github.com/ceprince/packing-list/internal/model"
	"github.com/ceprince/packing-list/internal/theme"
)

// NavigateMsg asks the host to open the page with the given ID.
type NavigateMsg struct {
	ID string
}

// OpenURLMsg asks the host to open a URL in the system browser.
type OpenURLMsg struct {
	URL string
}

// Model renders one non-course page: landing, navigation, and MOS pages
// list their children; pages with no children fall back to a raw field
// dump so unrecognized page types still render something useful.
type Model struct {
	record   model.PageRecord
	children []model.PageRecord
	selected int

	keys          *keys.KeyMap
	width, height int
}

// New creates a page view for record with its resolved children.
func New(
	record model.PageRecord,
	children []model.PageRecord,
	k *keys.KeyMap,
	width, height int,
) Model {
	return Model{
		record:   record,
		children: children,
		keys:     k,
		width:    width,
		height:   height,
	}
}

// Record returns the page this view renders.
func (m Model) Record() model.PageRecord {
	return m.record
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the page view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Down):
		if len(m.children) > 0 {
			m.selected = (m.selected + 1) % len(m.children)
		}
		return m, nil

	case key.Matches(keyMsg, m.keys.Up):
		if len(m.children) > 0 {
			m.selected--
			if m.selected < 0 {
				m.selected = len(m.children) - 1
			}
		}
		return m, nil

	case key.Matches(keyMsg, m.keys.Select):
		if len(m.children) == 0 {
			return m, nil
		}
		id := m.children[m.selected].ID
		return m, func() tea.Msg { return NavigateMsg{ID: id} }

	case key.Matches(keyMsg, m.keys.OpenSheet):
		if url := m.externalURL(); url != "" {
			return m, func() tea.Msg { return OpenURLMsg{URL: url} }
		}
		return m, nil
	}

	return m, nil
}

// externalURL picks the record's outward link, preferring the sheet.
func (m Model) externalURL() string {
	if strings.TrimSpace(m.record.SheetURL) != "" {
		return m.record.SheetURL
	}
	if strings.TrimSpace(m.record.PDFURL) != "" {
		return m.record.PDFURL
	}
	return m.record.ExternalURL
}

// View renders the page content.
func (m Model) View() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)
	b.WriteString(titleStyle.Render(m.record.DisplayTitle()))
	b.WriteString("\n\n")

	if strings.TrimSpace(m.record.Message) != "" {
		b.WriteString(theme.MessageStyle.Render(m.record.Message))
		b.WriteString("\n\n")
	}

	if len(m.children) > 0 {
		for i, child := range m.children {
			b.WriteString(m.renderChild(i, child))
			b.WriteString("\n")
		}
	} else {
		b.WriteString(m.renderFields())
	}

	if m.externalURL() != "" {
		b.WriteString("\n")
		b.WriteString(theme.HelpStyle.Render("g open link externally"))
	}

	return lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Render(b.String())
}

// renderChild renders one child page entry with its kind badge.
func (m Model) renderChild(idx int, child model.PageRecord) string {
	badge := kindBadge(catalog.Resolve(child))
	line := fmt.Sprintf("%s  %s", badge, child.DisplayTitle())

	if idx == m.selected {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}

// renderFields dumps the raw sheet columns for pages with no children,
// so custom and unknown page types still show their data.
func (m Model) renderFields() string {
	if len(m.record.Fields) == 0 {
		return theme.HelpStyle.Render("This page has no content.")
	}

	names := make([]string, 0, len(m.record.Fields))
	for name, value := range m.record.Fields {
		if strings.TrimSpace(value) == "" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	labelStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorGray)

	var b strings.Builder
	for _, name := range names {
		b.WriteString(theme.ListItemStyle.Render(
			labelStyle.Render(name+": ") + m.record.Fields[name],
		))
		b.WriteString("\n")
	}
	return b.String()
}

// kindBadge returns a short text badge for a page kind.
func kindBadge(kind catalog.PageKind) string {
	switch kind {
	case catalog.KindMOS:
		return "[MOS]"
	case catalog.KindCourse:
		return "[course]"
	case catalog.KindExternal:
		return "[link]"
	case catalog.KindNavigation, catalog.KindLanding:
		return "[section]"
	default:
		return "[page]"
	}
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
