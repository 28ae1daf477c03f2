// Package settings provides the settings view for the TUI.
// It shows the materialised settings and edits search, chunking,
// dedup and fusion values through the settings service.
package settings

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docsift/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docsift/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docsift/internal/core/domain"
	"github.com/custodia-labs/docsift/internal/core/ports/driving"
)

// Section represents which part of the settings view is active.
type Section int

const (
	// SectionOverview lists every editable setting.
	SectionOverview Section = iota
	// SectionSearchMode chooses the default search mode.
	SectionSearchMode
	// SectionEmbedding chooses the embedding provider.
	SectionEmbedding
	// SectionEdit edits a single numeric value.
	SectionEdit
)

const (
	keyEnter = "enter"
	keyEsc   = "esc"
	keyDown  = "down"
)

var errServiceUnavailable = errors.New("settings service not available")

type fieldKind int

const (
	kindMode fieldKind = iota
	kindProvider
	kindBool
	kindNumber
)

// field is one row of the overview.
type field struct {
	label string
	kind  fieldKind
	value func(*domain.Settings) string
	// apply parses input into the settings; bool fields ignore input and flip.
	apply func(*domain.Settings, string) error
}

func intField(label string, ptr func(*domain.Settings) *int) field {
	return field{
		label: label,
		kind:  kindNumber,
		value: func(s *domain.Settings) string { return strconv.Itoa(*ptr(s)) },
		apply: func(s *domain.Settings, input string) error {
			n, err := strconv.Atoi(strings.TrimSpace(input))
			if err != nil {
				return fmt.Errorf("%s expects a whole number: %w", label, domain.ErrInvalidInput)
			}
			*ptr(s) = n
			return nil
		},
	}
}

func floatField(label string, ptr func(*domain.Settings) *float64) field {
	return field{
		label: label,
		kind:  kindNumber,
		value: func(s *domain.Settings) string { return strconv.FormatFloat(*ptr(s), 'g', -1, 64) },
		apply: func(s *domain.Settings, input string) error {
			f, err := strconv.ParseFloat(strings.TrimSpace(input), 64)
			if err != nil {
				return fmt.Errorf("%s expects a number: %w", label, domain.ErrInvalidInput)
			}
			*ptr(s) = f
			return nil
		},
	}
}

func boolField(label string, ptr func(*domain.Settings) *bool) field {
	return field{
		label: label,
		kind:  kindBool,
		value: func(s *domain.Settings) string {
			if *ptr(s) {
				return "on"
			}
			return "off"
		},
		apply: func(s *domain.Settings, _ string) error {
			*ptr(s) = !*ptr(s)
			return nil
		},
	}
}

func overviewFields() []field {
	return []field{
		{label: "Search mode", kind: kindMode, value: func(s *domain.Settings) string { return s.Search.Mode.Description() }},
		{label: "Embedding provider", kind: kindProvider, value: func(s *domain.Settings) string {
			if s.Embedding.Model == "" {
				return s.Embedding.Provider.Description()
			}
			return s.Embedding.Provider.Description() + " / " + s.Embedding.Model
		}},
		intField("Max results", func(s *domain.Settings) *int { return &s.Search.MaxResults }),
		floatField("Similarity threshold", func(s *domain.Settings) *float64 { return &s.Search.SimilarityThreshold }),
		boolField("Query expansion", func(s *domain.Settings) *bool { return &s.Search.QueryExpansion }),
		intField("Chunk size", func(s *domain.Settings) *int { return &s.Chunking.ChunkSize }),
		intField("Chunk overlap", func(s *domain.Settings) *int { return &s.Chunking.Overlap }),
		intField("Min chunk length", func(s *domain.Settings) *int { return &s.Chunking.MinChunkLength }),
		floatField("Duplicate threshold", func(s *domain.Settings) *float64 { return &s.Dedup.DuplicateThreshold }),
		floatField("Replace threshold", func(s *domain.Settings) *float64 { return &s.Dedup.ReplaceThreshold }),
		floatField("Skip threshold", func(s *domain.Settings) *float64 { return &s.Dedup.SkipThreshold }),
		floatField("Semantic weight", func(s *domain.Settings) *float64 { return &s.Fusion.Semantic }),
		floatField("Keyword weight", func(s *domain.Settings) *float64 { return &s.Fusion.Keyword }),
		floatField("Corroboration bonus", func(s *domain.Settings) *float64 { return &s.Fusion.CorroborationBonus }),
	}
}

// View is the settings view.
type View struct {
	styles          *styles.Styles
	settingsService driving.SettingsService

	settings *domain.Settings
	fields   []field
	err      error

	section  Section
	selected int
	cursor   int // overview row restored after leaving a sub-section
	input    textinput.Model

	width  int
	height int
	ready  bool
}

// NewView creates a new settings view.
func NewView(s *styles.Styles, settingsService driving.SettingsService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}

	input := textinput.New()
	input.CharLimit = 32
	input.Width = 20

	return &View{
		styles:          s,
		settingsService: settingsService,
		fields:          overviewFields(),
		input:           input,
		section:         SectionOverview,
	}
}

// Init loads the current settings.
func (v *View) Init() tea.Cmd {
	return v.loadSettings()
}

func (v *View) loadSettings() tea.Cmd {
	return func() tea.Msg {
		if v.settingsService == nil {
			return messages.SettingsLoaded{Err: errServiceUnavailable}
		}
		settings, err := v.settingsService.Get()
		return messages.SettingsLoaded{Settings: settings, Err: err}
	}
}

// Update handles messages for the settings view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.ready = true
		return v, nil

	case messages.SettingsLoaded:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.settings = msg.Settings
		v.err = nil
		return v, nil

	case messages.SettingsSaved:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.backToOverview()
		v.err = nil
		return v, v.loadSettings()

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)
	}

	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if msg.String() == keyEsc {
		if v.section == SectionOverview {
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewMenu}
			}
		}
		v.backToOverview()
		v.err = nil
		return v, nil
	}

	switch v.section {
	case SectionOverview:
		return v.handleOverviewKeys(msg)
	case SectionSearchMode:
		return v.handleChoiceKeys(msg, len(domain.AllSearchModes()), func(i int) tea.Cmd {
			return v.setSearchMode(domain.AllSearchModes()[i])
		})
	case SectionEmbedding:
		return v.handleChoiceKeys(msg, len(embeddingProviders()), func(i int) tea.Cmd {
			return v.setEmbeddingProvider(embeddingProviders()[i])
		})
	case SectionEdit:
		return v.handleEditKeys(msg)
	}
	return v, nil
}

func (v *View) handleOverviewKeys(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
		}
	case keyDown, "j":
		if v.selected < len(v.fields)-1 {
			v.selected++
		}
	case keyEnter:
		if v.settings == nil {
			return v, nil
		}
		v.cursor = v.selected
		f := v.fields[v.selected]
		switch f.kind {
		case kindMode:
			v.section = SectionSearchMode
			v.selected = v.getSearchModeIndex()
		case kindProvider:
			v.section = SectionEmbedding
			v.selected = v.getEmbeddingProviderIndex()
		case kindBool:
			return v, v.save(f, "")
		case kindNumber:
			v.section = SectionEdit
			v.input.SetValue(f.value(v.settings))
			v.input.CursorEnd()
			return v, v.input.Focus()
		}
	}
	return v, nil
}

func (v *View) handleChoiceKeys(msg tea.KeyMsg, count int, choose func(int) tea.Cmd) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
		}
	case keyDown, "j":
		if v.selected < count-1 {
			v.selected++
		}
	case keyEnter:
		if v.selected >= 0 && v.selected < count {
			return v, choose(v.selected)
		}
	}
	return v, nil
}

func (v *View) handleEditKeys(msg tea.KeyMsg) (*View, tea.Cmd) {
	if msg.String() == keyEnter {
		return v, v.save(v.fields[v.cursor], v.input.Value())
	}
	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) backToOverview() {
	v.section = SectionOverview
	v.selected = v.cursor
	v.input.Blur()
	v.input.SetValue("")
}

// Commands to update settings.

// save applies input to a copy of the settings so a rejected value never
// reaches the displayed state.
func (v *View) save(f field, input string) tea.Cmd {
	updated := *v.settings
	if err := f.apply(&updated, input); err != nil {
		v.err = err
		return nil
	}
	return func() tea.Msg {
		if v.settingsService == nil {
			return messages.SettingsSaved{Err: errServiceUnavailable}
		}
		return messages.SettingsSaved{Err: v.settingsService.Save(&updated)}
	}
}

func (v *View) setSearchMode(mode domain.SearchMode) tea.Cmd {
	return func() tea.Msg {
		if v.settingsService == nil {
			return messages.SettingsSaved{Err: errServiceUnavailable}
		}
		return messages.SettingsSaved{Err: v.settingsService.SetSearchMode(mode)}
	}
}

func (v *View) setEmbeddingProvider(provider domain.AIProvider) tea.Cmd {
	return func() tea.Msg {
		if v.settingsService == nil {
			return messages.SettingsSaved{Err: errServiceUnavailable}
		}
		model := domain.DefaultEmbeddingModels()[provider]
		return messages.SettingsSaved{Err: v.settingsService.SetEmbeddingProvider(provider, model, "")}
	}
}

func embeddingProviders() []domain.AIProvider {
	return []domain.AIProvider{domain.AIProviderNone, domain.AIProviderOllama, domain.AIProviderOpenAI}
}

// Helper methods to get current selection indices.

func (v *View) getSearchModeIndex() int {
	if v.settings == nil {
		return 0
	}
	for i, m := range domain.AllSearchModes() {
		if m == v.settings.Search.Mode {
			return i
		}
	}
	return 0
}

func (v *View) getEmbeddingProviderIndex() int {
	if v.settings == nil {
		return 0
	}
	for i, p := range embeddingProviders() {
		if p == v.settings.Embedding.Provider {
			return i
		}
	}
	return 0
}

// View renders the settings view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Settings"))
	b.WriteString("\n\n")

	if v.settings == nil {
		if v.err != nil {
			b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
		} else {
			b.WriteString(v.styles.Muted.Render("Loading settings..."))
		}
		b.WriteString("\n\n")
		b.WriteString(v.styles.Help.Render("[esc] back"))
		return b.String()
	}

	switch v.section {
	case SectionOverview:
		b.WriteString(v.renderOverview())
	case SectionSearchMode:
		b.WriteString(v.renderSearchMode())
	case SectionEmbedding:
		b.WriteString(v.renderEmbedding())
	case SectionEdit:
		b.WriteString(v.renderEdit())
	}

	if v.err != nil {
		b.WriteString("\n")
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.renderHelp())
	return b.String()
}

func (v *View) renderOverview() string {
	var b strings.Builder
	width := 0
	for _, f := range v.fields {
		width = max(width, len(f.label))
	}
	for i, f := range v.fields {
		cursor := "  "
		style := v.styles.Normal
		if i == v.selected {
			cursor = "> "
			style = v.styles.Selected
		}
		label := fmt.Sprintf("%-*s", width, f.label)
		b.WriteString(cursor + style.Render(label) + "  " + v.styles.Muted.Render(f.value(v.settings)))
		b.WriteString("\n")
	}
	return b.String()
}

func (v *View) renderSearchMode() string {
	var b strings.Builder
	b.WriteString(v.styles.Subtitle.Render("Default search mode"))
	b.WriteString("\n\n")
	for i, m := range domain.AllSearchModes() {
		b.WriteString(v.renderChoice(i, m.Description(), m == v.settings.Search.Mode))
	}
	if !v.settings.Embedding.IsConfigured() {
		b.WriteString("\n")
		b.WriteString(v.styles.Warning.Render("No embedding provider: semantic and hybrid fall back to keyword."))
		b.WriteString("\n")
	}
	return b.String()
}

func (v *View) renderEmbedding() string {
	var b strings.Builder
	b.WriteString(v.styles.Subtitle.Render("Embedding provider"))
	b.WriteString("\n\n")
	for i, p := range embeddingProviders() {
		b.WriteString(v.renderChoice(i, p.Description(), p == v.settings.Embedding.Provider))
	}
	if p := embeddingProviders()[v.selected]; p.RequiresAPIKey() {
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render("API key is read from DOCSIFT_EMBEDDING_API_KEY."))
		b.WriteString("\n")
	}
	return b.String()
}

func (v *View) renderChoice(i int, label string, current bool) string {
	cursor := "  "
	style := v.styles.Normal
	if i == v.selected {
		cursor = "> "
		style = v.styles.Selected
	}
	if current {
		label += " (current)"
	}
	return cursor + style.Render(label) + "\n"
}

func (v *View) renderEdit() string {
	f := v.fields[v.cursor]
	var b strings.Builder
	b.WriteString(v.styles.Subtitle.Render(f.label))
	b.WriteString("\n\n")
	b.WriteString(v.styles.InputField.Render(v.input.View()))
	b.WriteString("\n")
	return b.String()
}

func (v *View) renderHelp() string {
	switch v.section {
	case SectionEdit:
		return v.styles.Help.Render("[enter] save  [esc] cancel")
	case SectionSearchMode, SectionEmbedding:
		return v.styles.Help.Render("[j/k] navigate  [enter] select  [esc] cancel")
	default:
		return v.styles.Help.Render("[j/k] navigate  [enter] edit/toggle  [esc] back")
	}
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Reset returns the view to the overview.
func (v *View) Reset() {
	v.cursor = 0
	v.backToOverview()
	v.err = nil
}

// Settings returns the loaded settings.
func (v *View) Settings() *domain.Settings {
	return v.settings
}

// Section returns the active section.
func (v *View) Section() Section {
	return v.section
}

// Selected returns the highlighted row.
func (v *View) Selected() int {
	return v.selected
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
