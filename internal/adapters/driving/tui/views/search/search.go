// Package search provides the main search view for the TUI.
package search

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docsift/internal/adapters/driving/tui/components/facets"
	"github.com/custodia-labs/docsift/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/docsift/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/docsift/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docsift/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docsift/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docsift/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docsift/internal/core/domain"
	"github.com/custodia-labs/docsift/internal/core/ports/driving"
)

// Focus identifies which pane receives key presses.
type Focus int

const (
	FocusInput Focus = iota
	FocusResults
	FocusFacets
)

// sidebarWidth is the facet sidebar width including its frame.
const sidebarWidth = 30

// modeCycle is the order the mode key steps through.
var modeCycle = []domain.SearchMode{
	domain.SearchModeHybrid,
	domain.SearchModeSemantic,
	domain.SearchModeKeyword,
}

// View is the search view: query input, fused results and a facet sidebar.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.SearchInput
	list      *list.ResultList
	sidebar   *facets.Sidebar
	statusbar *status.Bar

	searchService driving.SearchService
	ctx           context.Context

	mode      domain.SearchMode
	lastQuery string
	response  *domain.SearchResponse

	width  int
	height int
	ready  bool
	err    error
	focus  Focus
}

// NewView creates a new search view.
func NewView(s *styles.Styles, km *keymap.KeyMap, searchService driving.SearchService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	v := &View{
		styles:        s,
		keymap:        km,
		input:         input.NewSearchInput(s),
		list:          list.NewResultList(s),
		sidebar:       facets.NewSidebar(s),
		statusbar:     status.NewBar(s, km),
		searchService: searchService,
		ctx:           context.Background(),
		mode:          domain.SearchModeHybrid,
		width:         80,
		height:        24,
		focus:         FocusInput,
	}
	v.input.SetMode(string(v.mode))
	return v
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// SetMode sets the retrieval mode used for the next search.
func (v *View) SetMode(mode domain.SearchMode) {
	if !mode.IsValid() {
		return
	}
	v.mode = mode
	v.input.SetMode(string(mode))
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the search view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.SearchCompleted:
		v.handleSearchCompleted(msg)
		return v, nil

	case messages.FacetToggled:
		return v, v.performSearch(v.lastQuery)

	case messages.ErrorOccurred:
		v.err = msg.Err
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
		return v, nil
	}

	var cmd tea.Cmd
	if v.focus == FocusInput {
		v.input, cmd = v.input.Update(msg)
	}
	return v, cmd
}

// handleKeyMsg routes a key press to the focused pane.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch v.focus {
	case FocusResults:
		return v.handleResultsKey(msg)
	case FocusFacets:
		return v.handleFacetsKey(msg)
	}

	//nolint:exhaustive // handling only relevant key types
	switch msg.Type {
	case tea.KeyEsc:
		return v, changeView(messages.ViewMenu)
	case tea.KeyEnter:
		query := strings.TrimSpace(v.input.Value())
		if query == "" {
			return v, nil
		}
		v.sidebar.Reset()
		return v, v.performSearch(query)
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleResultsKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	key := msg.String()
	switch {
	case keymap.Matches(key, v.keymap.Back):
		return v, changeView(messages.ViewMenu)
	case keymap.Matches(key, v.keymap.Up):
		v.list.MoveUp()
	case keymap.Matches(key, v.keymap.Down):
		v.list.MoveDown()
	case keymap.Matches(key, v.keymap.Open):
		return v, v.openSelected()
	case keymap.Matches(key, v.keymap.SwitchPane):
		if v.sidebar.Len() > 0 {
			v.setFocus(FocusFacets)
		}
	case keymap.Matches(key, v.keymap.NewSearch):
		v.setFocus(FocusInput)
		v.input.SetValue("")
	case keymap.Matches(key, v.keymap.CycleMode):
		v.SetMode(nextMode(v.mode))
		if v.lastQuery != "" {
			return v, v.performSearch(v.lastQuery)
		}
	}
	return v, nil
}

func (v *View) handleFacetsKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	key := msg.String()
	switch {
	case keymap.Matches(key, v.keymap.Back), keymap.Matches(key, v.keymap.SwitchPane):
		v.setFocus(FocusResults)
	case keymap.Matches(key, v.keymap.Up):
		v.sidebar.MoveUp()
	case keymap.Matches(key, v.keymap.Down):
		v.sidebar.MoveDown()
	case keymap.Matches(key, v.keymap.ToggleFacet):
		facet, value, ok := v.sidebar.Toggle()
		if !ok {
			return v, nil
		}
		return v, func() tea.Msg {
			return messages.FacetToggled{Facet: facet, Value: value}
		}
	case keymap.Matches(key, v.keymap.ClearFilters):
		if v.sidebar.ActiveCount() == 0 {
			return v, nil
		}
		v.sidebar.Clear()
		return v, v.performSearch(v.lastQuery)
	}
	return v, nil
}

// openSelected navigates to the content of the selected hit's document.
func (v *View) openSelected() tea.Cmd {
	hit := v.list.SelectedResult()
	if hit == nil {
		return nil
	}
	doc := domain.Document{ID: hit.DocumentID, FileName: hit.DocumentName}
	return func() tea.Msg {
		return messages.DocumentSelected{Document: doc, Back: messages.ViewSearch}
	}
}

// performSearch runs the query with the current mode and facet filters.
// Facets are always requested so the sidebar can be refreshed.
func (v *View) performSearch(query string) tea.Cmd {
	if query == "" {
		return nil
	}
	v.lastQuery = query
	v.statusbar.SetState(status.StateSearching)

	opts := domain.SearchOptions{
		Mode:    v.mode,
		Filters: v.sidebar.Filters(),
		Facets:  true,
	}
	ctx := v.ctx
	svc := v.searchService

	return func() tea.Msg {
		if svc == nil {
			return messages.ErrorOccurred{Err: ErrNoSearchService}
		}
		var (
			resp *domain.SearchResponse
			err  error
		)
		if len(opts.Filters) > 0 {
			resp, err = svc.FacetedSearch(ctx, query, opts)
		} else {
			resp, err = svc.Search(ctx, query, opts)
		}
		return messages.SearchCompleted{Query: query, Response: resp, Err: err}
	}
}

// handleSearchCompleted applies a search response to the panes.
func (v *View) handleSearchCompleted(msg messages.SearchCompleted) {
	if msg.Err != nil {
		v.err = msg.Err
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
		return
	}

	v.err = nil
	v.response = msg.Response
	var hits []domain.RetrievalHit
	var set domain.FacetSet
	var warnings []string
	if msg.Response != nil {
		hits = msg.Response.Results
		set = msg.Response.Facets
		warnings = msg.Response.Warnings
		if msg.Response.Mode.IsValid() {
			v.input.SetMode(string(msg.Response.Mode))
		}
	}
	v.list.SetResults(hits)
	v.sidebar.SetFacets(set)

	v.statusbar.SetMessage("")
	v.statusbar.SetWarning(strings.Join(warnings, "; "))
	v.statusbar.SetResultCount(len(hits))
	v.statusbar.SetFilterCount(v.sidebar.ActiveCount())
	if v.focus != FocusFacets {
		v.setFocus(FocusResults)
	} else {
		v.statusbar.SetState(status.StateFacets)
	}
}

func (v *View) setFocus(f Focus) {
	v.focus = f
	switch f {
	case FocusInput:
		v.input.Focus()
		v.statusbar.SetState(status.StateReady)
	case FocusResults:
		v.input.Blur()
		v.statusbar.SetState(status.StateResults)
	case FocusFacets:
		v.input.Blur()
		v.statusbar.SetState(status.StateFacets)
	}
}

func nextMode(m domain.SearchMode) domain.SearchMode {
	for i, mode := range modeCycle {
		if mode == m {
			return modeCycle[(i+1)%len(modeCycle)]
		}
	}
	return modeCycle[0]
}

func changeView(view messages.ViewType) tea.Cmd {
	return func() tea.Msg {
		return messages.ViewChanged{View: view}
	}
}

// View renders the search view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 8)
	sections = append(sections, v.styles.Title.Render("docsift"), "", v.input.View(), "")

	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}
	if v.response != nil && v.response.ExpandedQuery != "" && v.response.ExpandedQuery != v.response.Query {
		sections = append(sections, v.styles.Muted.Render("expanded: "+v.response.ExpandedQuery), "")
	}

	body := v.list.View()
	if v.sidebar.Len() > 0 || v.sidebar.ActiveCount() > 0 {
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, "  ", v.sidebar.View(v.focus == FocusFacets))
	}
	sections = append(sections, body, "", v.statusbar.View())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.list.SetDimensions(max(width-sidebarWidth-2, 30), height-10)
	v.sidebar.SetDimensions(sidebarWidth-4, height-10)
	v.statusbar.SetWidth(width)
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// Query returns the current input value.
func (v *View) Query() string {
	return v.input.Value()
}

// SetQuery sets the input value.
func (v *View) SetQuery(query string) {
	v.input.SetValue(query)
}

// Mode returns the mode used for the next search.
func (v *View) Mode() domain.SearchMode {
	return v.mode
}

// Results returns the current hits.
func (v *View) Results() []domain.RetrievalHit {
	return v.list.Results()
}

// Response returns the last search response.
func (v *View) Response() *domain.SearchResponse {
	return v.response
}

// Filters returns the active facet filters.
func (v *View) Filters() domain.SearchFilters {
	return v.sidebar.Filters()
}

// SelectedIndex returns the index of the selected hit.
func (v *View) SelectedIndex() int {
	return v.list.Selected()
}

// Focus returns the focused pane.
func (v *View) Focus() Focus {
	return v.focus
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// Reset clears the query, results and filters and focuses the input.
func (v *View) Reset() {
	v.input.SetValue("")
	v.list.SetResults(nil)
	v.sidebar.Reset()
	v.response = nil
	v.lastQuery = ""
	v.err = nil
	v.statusbar.Clear()
	v.setFocus(FocusInput)
}
