package settings

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/ceprince/packing-list/internal/model"
)

// DoneMsg signals the settings view should close without changes.
type DoneMsg struct{}

// SavedMsg signals the configuration was updated and persisted.
type SavedMsg struct {
	Config *model.AppConfig
}

// savedInternalMsg is sent after the config file write completes.
type savedInternalMsg struct {
	config *model.AppConfig
	err    error
}

// formBindings holds form field values on the heap so that huh's Value()
// pointers stay valid across Bubble Tea model copies.
type formBindings struct {
	sheetURL     string
	associateTag string
	batchLimit   string
	dedup        string
}

// Model is the settings form.
type Model struct {
	form       *huh.Form
	fb         *formBindings
	configPath string
	config     *model.AppConfig

	errMsg        string
	width, height int
}

// New creates a settings form pre-filled from the current configuration.
func New(configPath string, cfg *model.AppConfig, width, height int) Model {
	fb := &formBindings{
		sheetURL:     cfg.SheetURL,
		associateTag: cfg.Cart.AssociateTag,
		batchLimit:   strconv.Itoa(cfg.Cart.BatchLimit),
		dedup:        cfg.Cart.DedupPolicy,
	}

	m := Model{
		fb:         fb,
		configPath: configPath,
		config:     cfg,
		width:      width,
		height:     height,
	}
	m.form = m.buildForm()
	return m
}

func (m Model) buildForm() *huh.Form {
	fb := m.fb
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Sheet URL").
				Description("Published TSV export holding the page table").
				Value(&fb.sheetURL).
				Validate(validateURL),
			huh.NewInput().
				Title("Associate Tag").
				Description("Appended to every generated cart URL").
				Value(&fb.associateTag),
			huh.NewInput().
				Title("Batch Limit").
				Description("Items per bulk cart request").
				Value(&fb.batchLimit).
				Validate(validatePositiveInt),
			huh.NewSelect[string]().
				Title("Duplicate Handling").
				Description("What happens when the same item is queued twice").
				Options(
					huh.NewOption("Skip duplicates (by item and link)", model.DedupByItemLink),
					huh.NewOption("Allow duplicates", model.DedupNone),
				).
				Value(&fb.dedup),
		),
	).WithWidth(m.formWidth())
}

// Init returns the form's initial command.
func (m Model) Init() tea.Cmd {
	return m.form.Init()
}

// Update handles messages for the settings form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case savedInternalMsg:
		if msg.err != nil {
			m.errMsg = fmt.Sprintf("Error saving settings: %v", msg.err)
			return m, nil
		}
		cfg := msg.config
		return m, func() tea.Msg { return SavedMsg{Config: cfg} }
	}

	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, m.save()
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return DoneMsg{} }
	}

	return m, cmd
}

// save applies the form values to a copy of the config and persists it.
func (m Model) save() tea.Cmd {
	cfg := *m.config
	cfg.SheetURL = strings.TrimSpace(m.fb.sheetURL)
	cfg.Cart.AssociateTag = strings.TrimSpace(m.fb.associateTag)
	if n, err := strconv.Atoi(strings.TrimSpace(m.fb.batchLimit)); err == nil && n > 0 {
		cfg.Cart.BatchLimit = n
	}
	cfg.Cart.DedupPolicy = m.fb.dedup

	path := m.configPath
	return func() tea.Msg {
		err := model.SaveConfig(path, &cfg)
		return savedInternalMsg{config: &cfg, err: err}
	}
}

// View renders the settings form.
func (m Model) View() string {
	content := m.form.View()
	if m.errMsg != "" {
		content += "\n\n" + m.errMsg
	}

	return lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height).
		Render(content)
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

// --- Validators ---

func validateURL(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("URL is required")
	}
	parsed, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("URL must include scheme and host (e.g., https://example.com)")
	}
	return nil
}

func validatePositiveInt(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return fmt.Errorf("must be a positive number")
	}
	return nil
}
