package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docsift/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docsift/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docsift/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docsift/internal/adapters/driving/tui/views/doccontent"
	"github.com/custodia-labs/docsift/internal/adapters/driving/tui/views/docdetails"
	"github.com/custodia-labs/docsift/internal/adapters/driving/tui/views/documents"
	"github.com/custodia-labs/docsift/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/docsift/internal/adapters/driving/tui/views/search"
	"github.com/custodia-labs/docsift/internal/adapters/driving/tui/views/settings"
	"github.com/custodia-labs/docsift/internal/logger"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles

	menuView       *menu.View
	searchView     *search.View
	documentsView  *documents.View
	docContentView *doccontent.View
	docDetailsView *docdetails.View
	settingsView   *settings.View

	currentView messages.ViewType

	// err holds the last error that occurred.
	err error

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
// The search mode starts at the configured default when settings are available.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	a := &App{
		ports:          ports,
		ctx:            context.Background(),
		styles:         s,
		menuView:       menu.NewView(s),
		searchView:     search.NewView(s, keymap.DefaultKeyMap(), ports.Search),
		documentsView:  documents.NewView(s, ports.Document),
		docContentView: doccontent.NewView(s, ports.Document),
		docDetailsView: docdetails.NewView(s),
		settingsView:   settings.NewView(s, ports.Settings),
		currentView:    messages.ViewMenu,
	}

	a.applySettings()

	return a, nil
}

// applySettings reads the configured default mode into the search view
// and the menu summary.
func (a *App) applySettings() {
	if a.ports.Settings == nil {
		return
	}
	current, err := a.ports.Settings.Get()
	if err != nil {
		logger.Warn("Loading settings for TUI: %v", err)
		return
	}
	a.searchView.SetMode(current.Search.Mode)
	a.menuView.SetSummary("Default mode: " + current.Search.Mode.Description())
}

// WithContext sets the context for the app and its views.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.searchView.WithContext(ctx)
	a.documentsView.WithContext(ctx)
	a.docContentView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("docsift"),
	)
}

// Update implements tea.Model.
//
//nolint:gocyclo // central message handler
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.currentView == messages.ViewHelp {
			if msg.Type == tea.KeyEsc {
				a.currentView = messages.ViewMenu
			}
			return a, nil
		}
		return a, a.forward(msg)

	case messages.ViewChanged:
		prev := a.currentView
		a.currentView = msg.View
		switch msg.View {
		case messages.ViewSearch:
			// Returning from a document keeps the results and filters.
			if prev != messages.ViewMenu {
				return a, nil
			}
			a.searchView.Reset()
			return a, a.searchView.Init()
		case messages.ViewDocuments:
			return a, a.documentsView.Init()
		case messages.ViewSettings:
			a.settingsView.Reset()
			return a, a.settingsView.Init()
		case messages.ViewMenu, messages.ViewHelp, messages.ViewDocContent, messages.ViewDocDetails:
		}
		return a, nil

	case messages.SearchCompleted:
		a.searchView, cmd = a.searchView.Update(msg)
		a.err = a.searchView.Err()
		return a, cmd

	case messages.FacetToggled:
		a.searchView, cmd = a.searchView.Update(msg)
		return a, cmd

	case messages.DocumentSelected:
		doc := msg.Document
		a.currentView = messages.ViewDocContent
		return a, a.docContentView.SetDocument(&doc, msg.Back)

	case messages.DocumentContentLoaded:
		a.docContentView, cmd = a.docContentView.Update(msg)
		return a, cmd

	case messages.DocumentsLoaded, messages.DocumentDeleted:
		a.documentsView, cmd = a.documentsView.Update(msg)
		return a, cmd

	case messages.DocumentDetailsLoaded:
		if msg.Err != nil {
			a.err = msg.Err
			a.documentsView, cmd = a.documentsView.Update(messages.ErrorOccurred{Err: msg.Err})
			return a, cmd
		}
		a.docDetailsView.SetDetails(msg.Details)
		a.currentView = messages.ViewDocDetails
		return a, nil

	case messages.SettingsLoaded:
		a.settingsView, cmd = a.settingsView.Update(msg)
		return a, cmd

	case messages.SettingsSaved:
		if msg.Err == nil {
			a.applySettings()
		}
		a.settingsView, cmd = a.settingsView.Update(msg)
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err
		return a, a.forward(msg)

	case messages.Quit:
		return a, tea.Quit
	}

	return a, a.forward(msg)
}

// forward passes a message to the active view.
func (a *App) forward(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.currentView {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewSearch:
		a.searchView, cmd = a.searchView.Update(msg)
	case messages.ViewDocuments:
		a.documentsView, cmd = a.documentsView.Update(msg)
	case messages.ViewDocContent:
		a.docContentView, cmd = a.docContentView.Update(msg)
	case messages.ViewDocDetails:
		a.docDetailsView, cmd = a.docDetailsView.Update(msg)
	case messages.ViewSettings:
		a.settingsView, cmd = a.settingsView.Update(msg)
	case messages.ViewHelp:
	}
	return cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewSearch:
		return a.searchView.View()
	case messages.ViewDocuments:
		return a.documentsView.View()
	case messages.ViewDocContent:
		return a.docContentView.View()
	case messages.ViewDocDetails:
		return a.docDetailsView.View()
	case messages.ViewSettings:
		return a.settingsView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	case messages.ViewMenu:
		return a.menuView.View()
	default:
		return a.menuView.View()
	}
}

// viewHelp renders the help view.
func (a *App) viewHelp() string {
	return a.styles.Title.Render("Help") + `

Navigation:
  esc         Back
  ctrl+c      Quit

Search:
  (type)      Enter query
  enter       Run search
  m           Cycle mode (hybrid, semantic, keyword)
  /           New search

Results:
  j/k, ↑/↓    Move
  enter       Open document
  tab         Focus facets

Facets:
  space       Toggle filter
  x           Clear filters
  tab, esc    Back to results

Documents:
  enter       Show content
  i           Show details
  d           Delete

Settings:
  enter       Edit value or toggle
  esc         Cancel edit

` + a.styles.Help.Render("[esc] back to menu")
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// SearchView exposes the search view for inspection.
func (a *App) SearchView() *search.View {
	return a.searchView
}

// DocumentsView exposes the documents view for inspection.
func (a *App) DocumentsView() *documents.View {
	return a.documentsView
}

// DocContentView exposes the content view for inspection.
func (a *App) DocContentView() *doccontent.View {
	return a.docContentView
}

// DocDetailsView exposes the details view for inspection.
func (a *App) DocDetailsView() *docdetails.View {
	return a.docDetailsView
}

// SettingsView exposes the settings view for inspection.
func (a *App) SettingsView() *settings.View {
	return a.settingsView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has received its dimensions.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.menuView.SetDimensions(width, height)
	a.searchView.SetDimensions(width, height)
	a.documentsView.SetDimensions(width, height)
	a.docContentView.SetDimensions(width, height)
	a.docDetailsView.SetDimensions(width, height)
	a.settingsView.SetDimensions(width, height)
}
