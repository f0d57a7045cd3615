package app

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/ceprince/packing-list/internal/browser"
	"github.com/ceprince/packing-list/internal/cart"
	"github.com/ceprince/packing-list/internal/catalog"
	"github.com/ceprince/packing-list/internal/keys"
	"github.com/ceprince/packing-list/internal/model"
	"github.com/ceprince/packing-list/internal/session"
	"github.com/ceprince/packing-list/internal/sheet"
	"github.com/ceprince/packing-list/internal/store"
	"github.com/ceprince/packing-list/internal/theme"
	"github.com/ceprince/packing-list/internal/ui"
	courseview "github.com/ceprince/packing-list/internal/ui/course"
	helpview "github.com/ceprince/packing-list/internal/ui/help"
	"github.com/ceprince/packing-list/internal/ui/navpage"
	settingsview "github.com/ceprince/packing-list/internal/ui/settings"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewLoading ViewState = iota
	ViewPage
	ViewCourse
	ViewSettings
	ViewHelp
	ViewNotFound
)

// catalogLoadedMsg carries the fetched (or cached) page table.
type catalogLoadedMsg struct {
	catalog   *catalog.Catalog
	fromCache bool
	err       error
}

// linkOpenedMsg reports the outcome of launching the system browser.
type linkOpenedMsg struct {
	err error
}

// Model is the root Bubble Tea model. It owns the page catalog, routes
// pages by their resolved kind, and keeps the navigation stack.
type Model struct {
	config     *model.AppConfig
	configPath string
	store      *store.SQLiteStore
	source     sheet.Source
	log        *zap.Logger
	keys       *keys.KeyMap
	layout     ui.Layout

	catalog   *catalog.Catalog
	fromCache bool
	loadErr   error

	currentView  ViewState
	previousView ViewState
	stack        []string
	notFoundID   string

	pageView     navpage.Model
	courseView   courseview.Model
	settingsView settingsview.Model
	helpView     helpview.Model

	statusMsg string
	ready     bool
}

// New creates the root application model.
func New(
	cfg *model.AppConfig,
	configPath string,
	st *store.SQLiteStore,
	src sheet.Source,
	log *zap.Logger,
) Model {
	k := keys.DefaultKeyMap()
	return Model{
		config:      cfg,
		configPath:  configPath,
		store:       st,
		source:      src,
		log:         log,
		keys:        k,
		currentView: ViewLoading,
		helpView:    helpview.New(k, 80, 24),
	}
}

// Init fetches the page catalog.
func (m Model) Init() tea.Cmd {
	return m.loadCatalog()
}

// loadCatalog fetches the page table, falling back to the local cache when
// the sheet is unreachable. A successful fetch refreshes the cache.
func (m Model) loadCatalog() tea.Cmd {
	src := m.source
	st := m.store
	log := m.log
	return func() tea.Msg {
		ctx := context.Background()

		records, err := src.FetchCatalog(ctx)
		if err == nil {
			if cacheErr := st.UpsertPages(ctx, records); cacheErr != nil {
				log.Warn("caching page table failed", zap.Error(cacheErr))
			}
			return catalogLoadedMsg{catalog: catalog.New(records)}
		}

		log.Warn("fetching page table failed, trying cache", zap.Error(err))
		cached, cacheErr := st.GetPages(ctx)
		if cacheErr != nil || len(cached) == 0 {
			return catalogLoadedMsg{err: err}
		}
		return catalogLoadedMsg{catalog: catalog.New(cached), fromCache: true}
	}
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.pageView.SetSize(w, h)
		m.courseView.SetSize(w, h)
		m.settingsView.SetSize(w, h)
		m.helpView.SetSize(w, h)
		return m.updateActiveView(msg)

	case catalogLoadedMsg:
		if msg.err != nil {
			m.loadErr = msg.err
			m.currentView = ViewLoading
			return m, nil
		}
		m.catalog = msg.catalog
		m.fromCache = msg.fromCache
		m.loadErr = nil
		if m.fromCache {
			m.statusMsg = "Offline: showing cached pages"
		} else {
			m.statusMsg = ""
		}
		// Keep the current page across a refresh when it still exists.
		if len(m.stack) > 0 {
			if cur := m.current(); m.catalog.FindByID(cur) != nil {
				return m.openPage(cur, false)
			}
			m.stack = nil
		}
		return m.openRoot()

	case navpage.NavigateMsg:
		return m.openPage(msg.ID, true)

	case navpage.OpenURLMsg:
		return m, m.openURL(msg.URL)

	case courseview.OpenLinkMsg:
		return m, m.openURL(msg.URL)

	case linkOpenedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Could not open browser: %v", msg.err)
			m.log.Error("opening browser failed", zap.Error(msg.err))
		}
		return m, nil

	case settingsview.SavedMsg:
		m.config = msg.Config
		m.source = sheet.NewSource(m.config.SheetURL)
		m.currentView = m.previousView
		m.statusMsg = "Settings saved"
		return m, m.loadCatalog()

	case settingsview.DoneMsg:
		m.currentView = m.previousView
		return m, nil

	case tea.KeyMsg:
		if mdl, cmd, handled := m.handleGlobalKeys(msg); handled {
			return mdl, cmd
		}
	}

	return m.updateActiveView(msg)
}

// handleGlobalKeys processes keys that work across views. It reports
// whether the key was consumed.
func (m Model) handleGlobalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	// The settings form and the quantity editor own all input while open,
	// except ctrl+c.
	if msg.String() != "ctrl+c" {
		if m.currentView == ViewSettings {
			return m, nil, false
		}
		if m.currentView == ViewCourse && m.courseView.EditingQuantity() {
			return m, nil, false
		}
	}

	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit, true

	case "q":
		return m, tea.Quit, true

	case "?":
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return m, nil, true
		}
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return m, nil, true

	case "esc":
		return m.goBack()

	case "s":
		if m.currentView == ViewPage || m.currentView == ViewNotFound {
			m.previousView = m.currentView
			m.currentView = ViewSettings
			m.settingsView = settingsview.New(
				m.configPath, m.config,
				m.layout.ContentWidth(), m.layout.ContentHeight(),
			)
			return m, m.settingsView.Init(), true
		}

	case "r":
		if m.currentView == ViewPage || m.currentView == ViewLoading {
			m.statusMsg = "Refreshing..."
			return m, m.loadCatalog(), true
		}
	}

	return m, nil, false
}

// goBack pops the navigation stack, or closes an overlay view.
func (m Model) goBack() (tea.Model, tea.Cmd, bool) {
	switch m.currentView {
	case ViewHelp:
		m.currentView = m.previousView
		return m, nil, true

	case ViewNotFound:
		if len(m.stack) > 0 {
			mdl, cmd := m.openPage(m.current(), false)
			return mdl, cmd, true
		}
		mdl, cmd := m.openRoot()
		return mdl, cmd, true

	case ViewPage, ViewCourse:
		if len(m.stack) <= 1 {
			return m, nil, true
		}
		m.stack = m.stack[:len(m.stack)-1]
		mdl, cmd := m.openPage(m.current(), false)
		return mdl, cmd, true
	}

	return m, nil, false
}

// current returns the top of the navigation stack.
func (m Model) current() string {
	return m.stack[len(m.stack)-1]
}

// openRoot opens the catalog's landing page.
func (m Model) openRoot() (tea.Model, tea.Cmd) {
	records := m.catalog.Records()
	for _, r := range records {
		if catalog.Resolve(r) == catalog.KindLanding {
			return m.openPage(r.ID, true)
		}
	}
	for _, r := range records {
		if r.IsRoot() {
			return m.openPage(r.ID, true)
		}
	}
	if len(records) > 0 {
		return m.openPage(records[0].ID, true)
	}
	m.loadErr = fmt.Errorf("the page table is empty")
	m.currentView = ViewLoading
	return m, nil
}

// openPage routes a page ID to its view by resolved kind. push controls
// whether the page lands on the navigation stack; re-opening after a back
// step or refresh does not push.
func (m Model) openPage(id string, push bool) (tea.Model, tea.Cmd) {
	record := m.catalog.FindByID(id)
	if record == nil {
		m.notFoundID = id
		m.currentView = ViewNotFound
		return m, nil
	}

	kind := catalog.Resolve(*record)

	// External pages redirect without becoming the current page.
	if kind == catalog.KindExternal {
		if record.ExternalURL == "" {
			m.statusMsg = "This page has no external link"
			return m, nil
		}
		return m, m.openURL(record.ExternalURL)
	}

	if push && (len(m.stack) == 0 || m.current() != id) {
		m.stack = append(m.stack, id)
	}

	w, h := m.layout.ContentWidth(), m.layout.ContentHeight()

	if kind == catalog.KindCourse {
		sess := session.New(
			record.ID,
			m.store,
			cart.Batcher{
				AssociateTag: m.config.Cart.AssociateTag,
				BatchLimit:   m.config.Cart.BatchLimit,
			},
			m.config.Cart.DedupPolicy,
			m.log,
		)
		m.courseView = courseview.New(*record, sess, m.source, m.keys, m.log, w, h)
		m.currentView = ViewCourse
		return m, m.courseView.Init()
	}

	children := m.catalog.Children(record.ID)
	switch kind {
	case catalog.KindLanding:
		// The landing page lists every MOS track, not the landing row's
		// own children; the sheet parents tracks to themselves.
		children = m.catalog.AtLevel(model.LevelMOS)
	case catalog.KindMOS:
		children = m.catalog.CoursesUnder(record.ID)
	}
	m.pageView = navpage.New(*record, children, m.keys, w, h)
	m.currentView = ViewPage
	return m, m.pageView.Init()
}

// openURL launches the system browser in the background.
func (m Model) openURL(url string) tea.Cmd {
	return func() tea.Msg {
		return linkOpenedMsg{err: browser.Open(url)}
	}
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewPage:
		m.pageView, cmd = m.pageView.Update(msg)
	case ViewCourse:
		m.courseView, cmd = m.courseView.Update(msg)
	case ViewSettings:
		m.settingsView, cmd = m.settingsView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader("Packing Lists", m.headerStatus())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// headerStatus summarizes the catalog state for the header's right side.
func (m Model) headerStatus() string {
	if m.fromCache {
		return "offline"
	}
	if m.catalog == nil {
		return "loading"
	}
	return ""
}

// renderContent returns the rendered string for the current active view,
// with the breadcrumb trail above page content.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewLoading:
		return m.renderLoading()
	case ViewPage:
		return m.withBreadcrumb(m.pageView.Record().ID, m.pageView.View())
	case ViewCourse:
		return m.withBreadcrumb(m.courseView.Record().ID, m.courseView.View())
	case ViewSettings:
		return m.settingsView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewNotFound:
		return m.renderNotFound()
	default:
		return ""
	}
}

// withBreadcrumb stacks the ancestry trail above the page content.
func (m Model) withBreadcrumb(id string, content string) string {
	trail := m.catalog.BreadcrumbTrail(id)
	crumb := ui.RenderBreadcrumb(trail)
	if crumb == "" {
		return content
	}
	crumb = lipgloss.NewStyle().Padding(0, 2).Render(crumb)
	return lipgloss.JoinVertical(lipgloss.Left, crumb, content)
}

func (m Model) renderLoading() string {
	style := lipgloss.NewStyle().Padding(1, 2)

	if m.loadErr != nil {
		errStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorRed)
		return style.Render(
			errStyle.Render("Could not load the page table") + "\n\n" +
				m.loadErr.Error() + "\n\n" +
				theme.HelpStyle.Render("r retry | q quit"),
		)
	}
	return style.Render("Fetching pages...")
}

func (m Model) renderNotFound() string {
	style := lipgloss.NewStyle().Padding(1, 2)
	title := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorRed).
		Render("Page not found")
	return style.Render(
		title + "\n\n" +
			fmt.Sprintf("No page with id %q exists.", m.notFoundID) + "\n\n" +
			theme.HelpStyle.Render("esc back"),
	)
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	if m.statusMsg != "" {
		return m.statusMsg
	}

	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewSettings:
		return "enter submit | esc cancel"
	case ViewCourse:
		return "space cycle | n needed | b buy | x check | C checkout | tab pane | ? help"
	case ViewNotFound:
		return "esc back | q quit"
	default:
		return "enter open | esc back | r refresh | s settings | ? help | q quit"
	}
}
