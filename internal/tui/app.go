// internal/tui/app.go
//
// The dealdesk screen host. The main menu opens a form directly or goes
// through the deal chooser first; a closed form returns to the menu with
// its outcome in the status line. The journal tail renders under every
// screen.

package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/dealdesk/internal/config"
	"github.com/kingrea/dealdesk/internal/crm"
	"github.com/kingrea/dealdesk/internal/forms"
	"github.com/kingrea/dealdesk/internal/forms/dealform"
	"github.com/kingrea/dealdesk/internal/forms/personform"
	"github.com/kingrea/dealdesk/internal/logbook"
	"github.com/kingrea/dealdesk/internal/store"
)

// appState represents which "screen" we're on
type appState int

const (
	stateMainMenu   appState = iota // Main menu with "Create Deal", etc.
	stateDealSelect                 // Picking the deal to edit
	stateForm                       // A form is open
)

const logPanelLines = 8

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithStore supplies the record store. The caller keeps ownership.
func WithStore(s store.Store) AppOption {
	return func(a *App) {
		if s != nil {
			a.store = s
		}
	}
}

// WithLogbook overrides the journal the forms write to.
func WithLogbook(lb *logbook.Logbook) AppOption {
	return func(a *App) {
		if lb != nil {
			a.logbook = lb
		}
	}
}

type dealsLoadedMsg struct {
	deals []dealItem
	err   error
}

// App is the main application model. In bubbletea, this holds ALL your state.
type App struct {
	state     appState
	config    *config.Config
	store     store.Store
	ownsStore bool
	logbook   *logbook.Logbook
	formCtx   *forms.Context

	form forms.Form

	// UI components
	mainMenu     list.Model
	dealMenu     list.Model
	dealsLoading bool
	dealsErr     error
	statusMsg    string

	// Window size (we get this from bubbletea)
	width  int
	height int
}

// menuItem implements list.Item interface for our menu items
type menuItem struct {
	title string
	desc  string
}

func (i menuItem) Title() string       { return i.title }
func (i menuItem) Description() string { return i.desc }
func (i menuItem) FilterValue() string { return i.title }

type dealItem struct {
	deal  crm.Deal
	stage string
	pipe  string
}

func (d dealItem) Title() string { return d.deal.Name }

func (d dealItem) Description() string {
	parts := []string{d.stage, d.pipe}
	if d.deal.Amount != nil {
		parts = append(parts, fmt.Sprintf("%.2f", *d.deal.Amount))
	}
	return strings.Join(parts, " · ")
}

func (d dealItem) FilterValue() string { return d.deal.Name }

// NewApp creates a new App instance
func NewApp(projectDir string, opts ...AppOption) (*App, error) {
	cfg, err := config.NewConfig(projectDir)
	if err != nil {
		return nil, err
	}

	mainMenu := list.New(buildMainMenu(), list.NewDefaultDelegate(), 0, 0)
	mainMenu.Title = "⬡ DEALDESK"
	mainMenu.SetShowStatusBar(false)
	mainMenu.SetFilteringEnabled(false)
	dealMenu := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	dealMenu.Title = "Select Deal"
	dealMenu.SetShowStatusBar(false)
	dealMenu.SetFilteringEnabled(false)

	app := &App{
		state:    stateMainMenu,
		config:   cfg,
		mainMenu: mainMenu,
		dealMenu: dealMenu,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	if app.logbook == nil {
		lb, err := logbook.New(cfg.JournalPath())
		if err == nil {
			app.logbook = lb
		}
	}
	if app.store == nil {
		fx, err := store.LoadFixtures(cfg.Store().Fixtures)
		if err != nil {
			return nil, err
		}
		mem, err := store.NewMemory(fx)
		if err != nil {
			return nil, err
		}
		app.store = store.WithLatency(mem, cfg.Store().Latency)
		app.ownsStore = true
	}
	app.formCtx = &forms.Context{
		Store:   app.store,
		Logbook: app.logbook,
		Timeout: cfg.RequestTimeout(),
	}
	app.logInfo("Session opened · store: %s", cfg.Store().Driver)
	return app, nil
}

// buildMainMenu creates the main menu items
func buildMainMenu() []list.Item {
	return []list.Item{
		menuItem{title: "Create Deal", desc: "Add a deal to a pipeline stage"},
		menuItem{title: "Edit Deal", desc: "Change an existing deal"},
		menuItem{title: "Create Person", desc: "Add a contact, optionally linked to a company"},
		menuItem{title: "Exit", desc: "Quit dealdesk"},
	}
}

// Close releases the store when the app created it.
func (a *App) Close() error {
	if a.ownsStore && a.store != nil {
		return a.store.Close()
	}
	return nil
}

func (a *App) logInfo(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Info(format, args...)
}

func (a *App) logError(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Error(format, args...)
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return nil
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.mainMenu.SetSize(max(0, msg.Width-6), max(0, msg.Height-10))
		a.dealMenu.SetSize(max(0, msg.Width-6), max(0, msg.Height-10))
		if a.state == stateForm && a.form != nil {
			_, cmd := a.form.Update(msg)
			return a, cmd
		}
		return a, nil

	case forms.FormDoneMsg:
		a.statusMsg = msg.Message
		return a.returnToMainMenu()

	case forms.FormCancelledMsg:
		a.statusMsg = fmt.Sprintf("%s cancelled", msg.Title)
		a.logInfo("Form · %s cancelled", msg.Title)
		return a.returnToMainMenu()

	case dealsLoadedMsg:
		if a.state != stateDealSelect {
			return a, nil
		}
		a.dealsLoading = false
		a.dealsErr = msg.err
		if msg.err != nil {
			a.logError("Load deals: %v", msg.err)
			return a, nil
		}
		items := make([]list.Item, len(msg.deals))
		for i := range msg.deals {
			items[i] = msg.deals[i]
		}
		a.dealMenu.SetItems(items)
		a.dealMenu.Select(0)
		return a, nil

	case tea.KeyMsg:
		key := msg.String()
		if key == "ctrl+c" {
			return a, tea.Quit
		}
		switch a.state {
		case stateForm:
			return a, a.updateForm(msg)
		case stateMainMenu:
			switch key {
			case "q":
				return a, tea.Quit
			case "enter":
				return a.handleMainMenuSelection()
			}
		case stateDealSelect:
			switch key {
			case "esc":
				return a.returnToMainMenu()
			case "enter":
				return a.confirmDealSelection()
			case "r":
				if a.dealsErr != nil {
					return a.beginDealSelection()
				}
			}
		}
	}

	var cmd tea.Cmd
	switch a.state {
	case stateMainMenu:
		a.mainMenu, cmd = a.mainMenu.Update(msg)
	case stateDealSelect:
		a.dealMenu, cmd = a.dealMenu.Update(msg)
	case stateForm:
		cmd = a.updateForm(msg)
	}
	return a, cmd
}

func (a *App) updateForm(msg tea.Msg) tea.Cmd {
	if a.form == nil {
		return nil
	}
	next, cmd := a.form.Update(msg)
	a.form = next
	return cmd
}

// handleMainMenuSelection processes menu item selection
func (a *App) handleMainMenuSelection() (tea.Model, tea.Cmd) {
	item, ok := a.mainMenu.SelectedItem().(menuItem)
	if !ok {
		return a, nil
	}

	switch item.title {
	case "Create Deal":
		return a.openForm(dealform.NewCreate())
	case "Edit Deal":
		return a.beginDealSelection()
	case "Create Person":
		return a.openForm(personform.New())
	case "Exit":
		a.logInfo("Menu · Exit selected")
		return a, tea.Quit
	}
	return a, nil
}

func (a *App) beginDealSelection() (tea.Model, tea.Cmd) {
	a.state = stateDealSelect
	a.dealsLoading = true
	a.dealsErr = nil
	a.dealMenu.SetItems(nil)
	a.statusMsg = "Select a deal to edit"
	return a, a.fetchDeals()
}

func (a *App) confirmDealSelection() (tea.Model, tea.Cmd) {
	item, ok := a.dealMenu.SelectedItem().(dealItem)
	if !ok {
		return a, nil
	}
	return a.openForm(dealform.NewEdit(item.deal))
}

func (a *App) openForm(f forms.Form) (tea.Model, tea.Cmd) {
	a.state = stateForm
	a.form = f
	a.statusMsg = ""
	a.logInfo("Form · %s opened", f.Title())
	cmds := []tea.Cmd{f.Init(a.formCtx)}
	if a.width > 0 && a.height > 0 {
		_, cmd := f.Update(tea.WindowSizeMsg{Width: a.width - 6, Height: a.height - 10})
		cmds = append(cmds, cmd)
	}
	return a, tea.Batch(cmds...)
}

// returnToMainMenu transitions back to the main menu
func (a *App) returnToMainMenu() (tea.Model, tea.Cmd) {
	a.state = stateMainMenu
	a.form = nil
	a.dealsLoading = false
	a.dealsErr = nil
	return a, nil
}

func (a *App) fetchDeals() tea.Cmd {
	st := a.store
	return a.formCtx.Call(func(ctx context.Context) tea.Msg {
		deals, err := st.Deals(ctx)
		if err != nil {
			return dealsLoadedMsg{err: err}
		}
		pipelines, err := st.Pipelines(ctx)
		if err != nil {
			return dealsLoadedMsg{err: err}
		}
		pipeNames := map[string]string{}
		stageNames := map[string]string{}
		for _, p := range pipelines {
			pipeNames[p.ID] = p.Name
			stages, err := st.Stages(ctx, p.ID)
			if err != nil {
				return dealsLoadedMsg{err: err}
			}
			for _, s := range stages {
				stageNames[s.ID] = s.Name
			}
		}
		items := make([]dealItem, len(deals))
		for i, d := range deals {
			items[i] = dealItem{deal: d, stage: stageNames[d.StageID], pipe: pipeNames[d.PipelineID]}
		}
		return dealsLoadedMsg{deals: items}
	})
}

// View renders the current state to a string.
func (a *App) View() string {
	width := a.width
	if width <= 0 {
		width = 100
	}
	var content string
	switch a.state {
	case stateMainMenu:
		content = a.mainMenu.View()
	case stateDealSelect:
		content = a.renderDealSelection()
	case stateForm:
		if a.form != nil {
			content = a.form.View()
		}
	}

	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FF6B6B")).
		MarginBottom(1).
		Render(fmt.Sprintf("⬡ DEALDESK · %s store", a.config.Store().Driver))
	body := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Width(max(20, width-4)).
		Render(content)
	sections := []string{header, body}
	if logPanel := a.renderLogPanel(); logPanel != "" {
		sections = append(sections, logPanel)
	}
	footer := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		MarginTop(1).
		Render(a.statusMsg)
	sections = append(sections, footer)
	return strings.Join(sections, "\n")
}

func (a *App) renderDealSelection() string {
	hint := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		MarginTop(1).
		Render("Enter → edit deal    Esc → back")
	switch {
	case a.dealsLoading:
		return "Loading deals..."
	case a.dealsErr != nil:
		return lipgloss.JoinVertical(lipgloss.Left,
			forms.ErrorBlock(fmt.Sprintf("Error loading deals: %v", a.dealsErr)),
			forms.Muted("r → retry    Esc → back"),
		)
	case len(a.dealMenu.Items()) == 0:
		return lipgloss.JoinVertical(lipgloss.Left, "No deals yet. Create one first.", hint)
	}
	return lipgloss.JoinVertical(lipgloss.Left, a.dealMenu.View(), hint)
}

func (a *App) renderLogPanel() string {
	if a.logbook == nil {
		return ""
	}
	lines, total := a.logbook.Tail(logPanelLines)
	if len(lines) == 0 {
		return ""
	}
	fileName := filepath.Base(a.logbook.Path())
	if fileName == "." || fileName == "" {
		fileName = "log"
	}
	head := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		Render(fmt.Sprintf("LOG · %s (%d)", fileName, total))
	body := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		Render(strings.Join(lines, "\n"))
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Render(fmt.Sprintf("%s\n%s", head, body))
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
