package course

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/ceprince/packing-list/internal/cart"
	"github.com/ceprince/packing-list/internal/keys"
	"github.com/ceprince/packing-list/internal/model"
	"github.com/ceprince/packing-list/internal/session"
	"github.com/ceprince/packing-list/internal/sheet"
	"github.com/ceprince/packing-list/internal/theme"
)

// pane identifies which list currently has focus.
type pane int

const (
	paneItems pane = iota
	paneNeeded
	paneCustom
)

// OpenLinkMsg asks the host to open a product or cart URL externally.
type OpenLinkMsg struct {
	URL string
}

// ItemsLoadedMsg carries a fetched packing list, or the fetch error.
type ItemsLoadedMsg struct {
	CourseID string
	Items    []model.PackingItem
	Err      error
}

// hydratedMsg carries the session's fetched state pieces. The blobs are
// read off the update loop and applied to the session on it, so the
// session is only ever mutated from one goroutine.
type hydratedMsg struct {
	courseID string
	pieces   map[string][]byte
}

// Model is the interactive checklist for one course page.
type Model struct {
	record  model.PageRecord
	session *session.Session
	source  sheet.Source
	log     *zap.Logger

	loading  bool
	loadErr  error
	spinner  spinner.Model
	pane     pane
	selected map[pane]int

	editingQty bool
	qtyInput   textinput.Model
	statusMsg  string

	keys          *keys.KeyMap
	width, height int
}

// New creates a checklist view for one course record. The session must be
// scoped to the same course ID.
func New(
	record model.PageRecord,
	sess *session.Session,
	source sheet.Source,
	k *keys.KeyMap,
	log *zap.Logger,
	width, height int,
) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	qi := textinput.New()
	qi.Prompt = "qty: "
	qi.CharLimit = 4
	qi.Width = 6

	return Model{
		record:   record,
		session:  sess,
		source:   source,
		log:      log,
		loading:  true,
		spinner:  sp,
		selected: map[pane]int{},
		qtyInput: qi,
		keys:     k,
		width:    width,
		height:   height,
	}
}

// Record returns the course page this view renders.
func (m Model) Record() model.PageRecord {
	return m.record
}

// EditingQuantity reports whether the quantity editor owns keyboard input.
func (m Model) EditingQuantity() bool {
	return m.editingQty
}

// Init hydrates the session and fetches the packing list concurrently.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.hydrate(), m.fetchItems())
}

// hydrate returns a command that fetches the session's persisted state
// pieces without mutating the session.
func (m Model) hydrate() tea.Cmd {
	sess := m.session
	return func() tea.Msg {
		return hydratedMsg{
			courseID: sess.CourseID(),
			pieces:   sess.FetchPieces(context.Background()),
		}
	}
}

// fetchItems returns a command that downloads the course's packing list.
func (m Model) fetchItems() tea.Cmd {
	src := m.source
	id := m.record.ID
	url := m.record.SheetURL
	return func() tea.Msg {
		items, err := src.FetchPackingList(context.Background(), url)
		return ItemsLoadedMsg{CourseID: id, Items: items, Err: err}
	}
}

// Update handles messages for the checklist view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ItemsLoadedMsg:
		if msg.CourseID != m.record.ID {
			return m, nil
		}
		m.loading = false
		if msg.Err != nil {
			m.loadErr = msg.Err
			m.log.Error("fetching packing list failed",
				zap.String("course", m.record.ID), zap.Error(msg.Err))
			return m, nil
		}
		m.session.SetItems(msg.Items)
		return m, nil

	case hydratedMsg:
		if msg.courseID != m.session.CourseID() {
			return m, nil
		}
		m.session.ApplyPieces(msg.pieces)
		return m, nil

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		if m.editingQty {
			return m.handleQtyKeys(msg)
		}
		return m.handleKeys(msg)
	}

	return m, nil
}

// handleQtyKeys processes input while the quantity editor is open.
func (m Model) handleQtyKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.editingQty = false
		return m.commitQuantity()
	case "esc":
		m.editingQty = false
		m.qtyInput.Reset()
		return m, nil
	}

	var cmd tea.Cmd
	m.qtyInput, cmd = m.qtyInput.Update(msg)
	return m, cmd
}

// commitQuantity applies the edited quantity to the focused row.
func (m Model) commitQuantity() (Model, tea.Cmd) {
	raw := m.qtyInput.Value()
	m.qtyInput.Reset()
	ctx := context.Background()

	if m.pane == paneItems {
		if !m.session.SetDesiredQuantity(ctx, m.selected[paneItems], raw) {
			m.statusMsg = "Quantity must be a positive number"
		}
		return m, nil
	}

	n := 0
	if _, err := fmt.Sscanf(strings.TrimSpace(raw), "%d", &n); err != nil || n <= 0 {
		m.statusMsg = "Quantity must be a positive number"
		return m, nil
	}
	m.session.SetQueuedQuantity(ctx, m.queueForPane(), m.selected[m.pane], n)
	return m, nil
}

// handleKeys processes key input in normal mode.
func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	m.statusMsg = ""
	ctx := context.Background()

	switch {
	case key.Matches(msg, m.keys.Down):
		m.move(1)
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.move(-1)
		return m, nil

	case key.Matches(msg, m.keys.SwitchPane):
		m.pane = m.nextPane()
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		m.loading = true
		m.loadErr = nil
		return m, tea.Batch(m.spinner.Tick, m.fetchItems())

	case key.Matches(msg, m.keys.Quantity):
		if m.paneLen(m.pane) == 0 {
			return m, nil
		}
		m.editingQty = true
		m.qtyInput.SetValue("")
		return m, m.qtyInput.Focus()

	case key.Matches(msg, m.keys.Checkout):
		return m.checkout()

	case key.Matches(msg, m.keys.OpenSheet):
		if strings.TrimSpace(m.record.PDFURL) == "" {
			m.statusMsg = "This course has no printable packing list"
			return m, nil
		}
		return m, openLink(m.record.PDFURL)
	}

	if m.pane == paneItems {
		return m.handleItemKeys(ctx, msg)
	}
	return m.handleQueueKeys(ctx, msg)
}

// handleItemKeys processes actions on the source item list.
func (m Model) handleItemKeys(ctx context.Context, msg tea.KeyMsg) (Model, tea.Cmd) {
	idx := m.selected[paneItems]
	if idx >= len(m.session.Items()) {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Cycle):
		m.session.CycleMarker(ctx, idx)
		return m, nil

	case key.Matches(msg, m.keys.Queue):
		ack, ok := m.session.Queue(ctx, idx)
		if !ok {
			return m, nil
		}
		if ack.Duplicate {
			m.statusMsg = "Already on the needed list"
		} else {
			m.statusMsg = "Added to the needed list"
		}
		return m, nil

	case key.Matches(msg, m.keys.Purchase):
		link, ok := m.session.Purchase(ctx, idx)
		if !ok {
			m.statusMsg = "This item has no product link"
			return m, nil
		}
		return m, openLink(link)

	case key.Matches(msg, m.keys.Check):
		checked := m.session.Marker(idx) != model.MarkerGreen
		m.session.ToggleCheckbox(ctx, idx, checked)
		return m, nil

	case key.Matches(msg, m.keys.Notes):
		if m.session.Items()[idx].HasNotes() {
			m.session.ToggleNotes(idx)
		}
		return m, nil
	}

	return m, nil
}

// handleQueueKeys processes actions on a needed list.
func (m Model) handleQueueKeys(ctx context.Context, msg tea.KeyMsg) (Model, tea.Cmd) {
	q := m.queueForPane()
	idx := m.selected[m.pane]
	if idx >= m.paneLen(m.pane) {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Select):
		link, ok := m.session.ClickThrough(ctx, q, idx)
		if ok && link != "" {
			return m, openLink(link)
		}
		return m, nil

	case key.Matches(msg, m.keys.Remove):
		m.session.RemoveFromQueue(ctx, q, idx)
		if m.selected[m.pane] >= m.paneLen(m.pane) && m.selected[m.pane] > 0 {
			m.selected[m.pane]--
		}
		return m, nil
	}

	return m, nil
}

// checkout batches the needed list into one cart URL and opens it.
func (m Model) checkout() (Model, tea.Cmd) {
	url, err := m.session.Checkout(context.Background())
	if err != nil {
		if errors.Is(err, cart.ErrNothingToCheckOut) {
			m.statusMsg = "Nothing left to check out"
		} else {
			m.statusMsg = fmt.Sprintf("Checkout failed: %v", err)
		}
		return m, nil
	}
	m.statusMsg = "Opening cart"
	return m, openLink(url)
}

func openLink(url string) tea.Cmd {
	return func() tea.Msg { return OpenLinkMsg{URL: url} }
}

// move shifts the focused pane's selection, wrapping at the ends.
func (m *Model) move(delta int) {
	n := m.paneLen(m.pane)
	if n == 0 {
		return
	}
	m.selected[m.pane] = (m.selected[m.pane] + delta + n) % n
}

// nextPane cycles focus across panes that have content, always keeping
// the item list reachable.
func (m Model) nextPane() pane {
	order := []pane{paneItems, paneNeeded, paneCustom}
	start := 0
	for i, p := range order {
		if p == m.pane {
			start = i
			break
		}
	}
	for i := 1; i <= len(order); i++ {
		p := order[(start+i)%len(order)]
		if p == paneItems || m.paneLen(p) > 0 {
			return p
		}
	}
	return paneItems
}

func (m Model) paneLen(p pane) int {
	switch p {
	case paneNeeded:
		return len(m.session.Needed())
	case paneCustom:
		return len(m.session.Custom())
	default:
		return len(m.session.Items())
	}
}

func (m Model) queueForPane() session.Queue {
	if m.pane == paneCustom {
		return session.QueueCustom
	}
	return session.QueueNeeded
}

// View renders the checklist.
func (m Model) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(1, 2).Render(
			fmt.Sprintf("%s Loading packing list...", m.spinner.View()),
		)
	}
	if m.loadErr != nil {
		errStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorRed)
		return lipgloss.NewStyle().Padding(1, 2).Render(
			errStyle.Render("Could not load the packing list") + "\n\n" +
				m.loadErr.Error() + "\n\n" +
				theme.HelpStyle.Render("r retry | esc back"),
		)
	}

	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite)
	b.WriteString(titleStyle.Render(m.record.DisplayTitle()))
	b.WriteString("\n")
	b.WriteString(m.renderBreakdown())
	b.WriteString("\n\n")

	if strings.TrimSpace(m.record.Message) != "" {
		b.WriteString(theme.MessageStyle.Render(m.record.Message))
		b.WriteString("\n\n")
	}

	b.WriteString(m.renderItems())

	if len(m.session.Needed()) > 0 {
		b.WriteString("\n")
		b.WriteString(m.renderQueue("Needed", m.session.Needed(), paneNeeded))
	}
	if len(m.session.Custom()) > 0 {
		b.WriteString("\n")
		b.WriteString(m.renderQueue("Direct Checkout", m.session.Custom(), paneCustom))
	}

	if m.editingQty {
		b.WriteString("\n")
		b.WriteString(m.qtyInput.View())
	}
	if m.statusMsg != "" {
		b.WriteString("\n")
		statusStyle := lipgloss.NewStyle().Foreground(theme.ColorYellow).Italic(true)
		b.WriteString(statusStyle.Render(m.statusMsg))
	}

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Render(b.String())
}

// renderBreakdown summarizes how many items are still not green.
func (m Model) renderBreakdown() string {
	b := m.session.Breakdown()
	if b.Total == 0 {
		return lipgloss.NewStyle().Foreground(theme.ColorGreen).
			Render("All packed")
	}
	return theme.HelpStyle.Render(fmt.Sprintf(
		"Still needed: %d (%d mandatory, %d recommended, %d optional)",
		b.Total, b.Mandatory, b.Recommended, b.Optional,
	))
}

// renderItems renders the source packing list pane.
func (m Model) renderItems() string {
	items := m.session.Items()
	if len(items) == 0 {
		return theme.HelpStyle.Render("This course has no packing list yet.")
	}

	var b strings.Builder
	for i, itm := range items {
		b.WriteString(m.renderItem(i, itm))
		b.WriteString("\n")
		if m.session.NotesExpanded(i) && itm.HasNotes() {
			b.WriteString(theme.NotesStyle.Render(itm.Notes))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// renderItem renders one source row with its marker, category, and quantity.
func (m Model) renderItem(idx int, itm model.PackingItem) string {
	marker := theme.MarkerStyle(m.session.Marker(idx)).Render("●")

	name := itm.Name
	if itm.CrossedOff {
		name = theme.CrossedOffStyle.Render(name)
	}

	category := ""
	if itm.Category != "" {
		category = theme.CategoryStyle(itm.Category).Render("[" + itm.Category + "]")
	}

	qty := theme.HelpStyle.Render(fmt.Sprintf("x%d", m.session.DesiredQuantity(idx)))

	notesHint := ""
	if itm.HasNotes() {
		notesHint = theme.HelpStyle.Render("(o notes)")
	}

	line := strings.TrimRight(
		fmt.Sprintf("%s %s %s %s %s", marker, name, qty, category, notesHint),
		" ",
	)

	if m.pane == paneItems && idx == m.selected[paneItems] {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}

// renderQueue renders one needed list pane.
func (m Model) renderQueue(title string, queue []model.QueuedItem, p pane) string {
	var b strings.Builder

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBlue)
	b.WriteString(headerStyle.Render(title))
	b.WriteString("\n")

	for i, qi := range queue {
		label := fmt.Sprintf("%s x%d", qi.Item.Name, qi.Quantity)
		if qi.CrossedOff {
			label = theme.CrossedOffStyle.Render(label)
		}
		if m.pane == p && i == m.selected[p] {
			b.WriteString(theme.SelectedItemStyle.Render(label))
		} else {
			b.WriteString(theme.ListItemStyle.Render(label))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
