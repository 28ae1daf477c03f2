package settings

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsift/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docsift/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docsift/internal/core/domain"
	"github.com/custodia-labs/docsift/internal/core/services"
)

func newTestView(t *testing.T) (*View, *services.SettingsService) {
	t.Helper()
	svc := services.NewSettingsService(memory.NewConfigStore())
	v := NewView(nil, svc)
	v.SetDimensions(100, 40)
	run(v, v.Init())
	require.NotNil(t, v.Settings())
	return v, svc
}

// run feeds each command's message back into the view until none remains.
func run(v *View, cmd tea.Cmd) {
	for cmd != nil {
		_, cmd = v.Update(cmd())
	}
}

func press(v *View, keys ...string) {
	for _, k := range keys {
		switch k {
		case "enter":
			v.Update(tea.KeyMsg{Type: tea.KeyEnter})
		case "esc":
			v.Update(tea.KeyMsg{Type: tea.KeyEsc})
		case "ctrl+u":
			v.Update(tea.KeyMsg{Type: tea.KeyCtrlU})
		default:
			v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
		}
	}
}

// moveTo highlights the overview row with the given label.
func moveTo(t *testing.T, v *View, label string) {
	t.Helper()
	for i, f := range v.fields {
		if f.label == label {
			for v.Selected() < i {
				press(v, "j")
			}
			return
		}
	}
	t.Fatalf("no settings row %q", label)
}

// edit opens the numeric row, replaces its value and submits it.
func edit(t *testing.T, v *View, label, value string) tea.Cmd {
	t.Helper()
	moveTo(t, v, label)
	press(v, "enter")
	require.Equal(t, SectionEdit, v.Section())
	press(v, "ctrl+u", value)
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return cmd
}

func TestView_RendersOverview(t *testing.T) {
	v, _ := newTestView(t)

	out := v.View()
	assert.Contains(t, out, "Settings")
	assert.Contains(t, out, "Hybrid")
	assert.Contains(t, out, "Chunk size")
	assert.Contains(t, out, "1000")
	assert.Contains(t, out, "Duplicate threshold")
	assert.Contains(t, out, "0.85")
	assert.Contains(t, out, "Corroboration bonus")
	assert.Contains(t, out, "1.1")
}

func TestView_EditChunkSize(t *testing.T) {
	v, svc := newTestView(t)

	cmd := edit(t, v, "Chunk size", "1500")
	require.NotNil(t, cmd)
	run(v, cmd)

	saved, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, 1500, saved.Chunking.ChunkSize)
	assert.Equal(t, 1500, v.Settings().Chunking.ChunkSize)
	assert.Equal(t, SectionOverview, v.Section())
	assert.Equal(t, "Chunk size", v.fields[v.Selected()].label, "cursor returns to the edited row")
	assert.NoError(t, v.Err())
}

func TestView_EditFusionWeight(t *testing.T) {
	v, svc := newTestView(t)

	run(v, edit(t, v, "Keyword weight", "0.5"))

	saved, err := svc.Get()
	require.NoError(t, err)
	assert.InDelta(t, 0.5, saved.Fusion.Keyword, 1e-9)
	assert.InDelta(t, 0.7, saved.Fusion.Semantic, 1e-9)
}

func TestView_EditRejectsNonNumber(t *testing.T) {
	v, svc := newTestView(t)

	cmd := edit(t, v, "Max results", "many")
	assert.Nil(t, cmd)
	assert.ErrorIs(t, v.Err(), domain.ErrInvalidInput)
	assert.Equal(t, SectionEdit, v.Section())
	assert.Contains(t, v.View(), "whole number")

	saved, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, 20, saved.Search.MaxResults)
}

func TestView_EditRejectsIncoherentThresholds(t *testing.T) {
	v, svc := newTestView(t)

	// Above the replace threshold breaks duplicate <= replace <= skip.
	cmd := edit(t, v, "Duplicate threshold", "0.93")
	require.NotNil(t, cmd)
	run(v, cmd)

	assert.ErrorIs(t, v.Err(), domain.ErrInvalidInput)
	assert.Equal(t, SectionEdit, v.Section(), "the edit stays open for correction")
	assert.InDelta(t, 0.85, v.Settings().Dedup.DuplicateThreshold, 1e-9)

	saved, err := svc.Get()
	require.NoError(t, err)
	assert.InDelta(t, 0.85, saved.Dedup.DuplicateThreshold, 1e-9)
}

func TestView_ToggleQueryExpansion(t *testing.T) {
	v, svc := newTestView(t)
	moveTo(t, v, "Query expansion")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	run(v, cmd)

	saved, err := svc.Get()
	require.NoError(t, err)
	assert.False(t, saved.Search.QueryExpansion)
	assert.Equal(t, SectionOverview, v.Section())
}

func TestView_ChooseSearchMode(t *testing.T) {
	v, svc := newTestView(t)

	press(v, "enter")
	require.Equal(t, SectionSearchMode, v.Section())
	assert.Equal(t, domain.SearchModeHybrid, domain.AllSearchModes()[v.Selected()], "current mode is preselected")
	assert.Contains(t, v.View(), "(current)")

	press(v, "k")
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	run(v, cmd)

	saved, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.SearchModeKeyword, saved.Search.Mode)
	assert.Equal(t, SectionOverview, v.Section())
	assert.Zero(t, v.Selected())
}

func TestView_ChooseEmbeddingProvider(t *testing.T) {
	v, svc := newTestView(t)
	moveTo(t, v, "Embedding provider")

	press(v, "enter")
	require.Equal(t, SectionEmbedding, v.Section())
	assert.Zero(t, v.Selected())

	press(v, "j")
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	run(v, cmd)

	saved, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOllama, saved.Embedding.Provider)
	assert.Equal(t, "nomic-embed-text", saved.Embedding.Model)
	assert.Contains(t, v.View(), "Ollama (local) / nomic-embed-text")
}

func TestView_EscNavigation(t *testing.T) {
	v, _ := newTestView(t)
	moveTo(t, v, "Skip threshold")
	press(v, "enter")
	require.Equal(t, SectionEdit, v.Section())

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, cmd)
	assert.Equal(t, SectionOverview, v.Section())
	assert.Equal(t, "Skip threshold", v.fields[v.Selected()].label)

	_, cmd = v.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewMenu}, cmd())
}

func TestView_NavigationBounds(t *testing.T) {
	v, _ := newTestView(t)

	press(v, "k")
	assert.Zero(t, v.Selected())
	for range len(v.fields) + 3 {
		press(v, "j")
	}
	assert.Equal(t, len(v.fields)-1, v.Selected())
}

func TestView_NoService(t *testing.T) {
	v := NewView(nil, nil)
	v.SetDimensions(80, 24)

	run(v, v.Init())
	assert.Nil(t, v.Settings())
	assert.ErrorIs(t, v.Err(), errServiceUnavailable)
	assert.Contains(t, v.View(), "settings service not available")

	// Nothing to edit until settings load.
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Equal(t, SectionOverview, v.Section())
}
