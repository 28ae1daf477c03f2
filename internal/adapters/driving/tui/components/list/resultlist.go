// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docsift/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docsift/internal/core/domain"
)

// linesPerHit is the rendered height of one hit: title, methods and preview.
const linesPerHit = 3

// ResultList displays fused retrieval hits in a navigable list.
type ResultList struct {
	hits     []domain.RetrievalHit
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewResultList creates a new result list component.
func NewResultList(s *styles.Styles) *ResultList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &ResultList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the result list.
func (r *ResultList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (r *ResultList) Update(msg tea.Msg) (*ResultList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			r.MoveUp()
		case "down", "j":
			r.MoveDown()
		}
	}
	return r, nil
}

// View renders the result list.
func (r *ResultList) View() string {
	if len(r.hits) == 0 {
		return r.styles.Muted.Render("No results")
	}

	lines := make([]string, 0, len(r.hits)+2)
	lines = append(lines, r.styles.Subtitle.Render(fmt.Sprintf("Results (%d)", len(r.hits))), "")

	visible := (r.height - 2) / linesPerHit
	if visible < 1 {
		visible = 1
	}
	start := 0
	if r.selected >= visible {
		start = r.selected - visible + 1
	}
	end := min(start+visible, len(r.hits))

	for i := start; i < end; i++ {
		lines = append(lines, r.renderHit(i, &r.hits[i]))
	}
	return strings.Join(lines, "\n")
}

// renderHit formats one hit as a title line, a method line and a preview.
func (r *ResultList) renderHit(index int, hit *domain.RetrievalHit) string {
	indicator := "  "
	if index == r.selected {
		indicator = "> "
	}

	title := hit.DocumentName
	if title == "" {
		title = hit.DocumentID
	}
	if hit.PageNumber != nil {
		title += fmt.Sprintf(" p.%d", *hit.PageNumber)
	}
	maxTitle := max(r.width-16, 10)
	title = truncate(title, maxTitle)
	score := fmt.Sprintf("%.3f", hit.FusedScore)

	var titleLine string
	if index == r.selected {
		titleLine = r.styles.Selected.Render(fmt.Sprintf("%s%-*s  %s", indicator, maxTitle, title, score))
	} else {
		titleLine = r.styles.Normal.Render(fmt.Sprintf("%s%-*s  ", indicator, maxTitle, title)) +
			r.styles.Muted.Render(score)
	}

	methods := make([]string, 0, len(hit.Methods))
	for _, m := range hit.Methods {
		methods = append(methods, r.styles.Badge.Render(fmt.Sprintf("%s %.2f", m, hit.Score(m))))
	}
	methodLine := "    " + strings.Join(methods, " ")

	preview := hit.Content
	if len(hit.Highlights) > 0 {
		preview = hit.Highlights[0]
	}
	preview = strings.Join(strings.Fields(preview), " ")
	previewLine := r.styles.Muted.Render("    " + truncate(preview, max(r.width-6, 20)))

	return titleLine + "\n" + methodLine + "\n" + previewLine
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

// SetResults replaces the hits and resets the selection.
func (r *ResultList) SetResults(hits []domain.RetrievalHit) {
	r.hits = hits
	r.selected = 0
}

// Results returns the current hits.
func (r *ResultList) Results() []domain.RetrievalHit {
	return r.hits
}

// Selected returns the index of the selected hit.
func (r *ResultList) Selected() int {
	return r.selected
}

// SetSelected sets the selected index.
func (r *ResultList) SetSelected(index int) {
	if index >= 0 && index < len(r.hits) {
		r.selected = index
	}
}

// SelectedResult returns the currently selected hit, or nil if none.
func (r *ResultList) SelectedResult() *domain.RetrievalHit {
	if r.selected < 0 || r.selected >= len(r.hits) {
		return nil
	}
	return &r.hits[r.selected]
}

// MoveUp moves selection up.
func (r *ResultList) MoveUp() {
	if r.selected > 0 {
		r.selected--
	}
}

// MoveDown moves selection down.
func (r *ResultList) MoveDown() {
	if r.selected < len(r.hits)-1 {
		r.selected++
	}
}

// SetDimensions sets the component dimensions.
func (r *ResultList) SetDimensions(width, height int) {
	r.width = width
	r.height = height
}

// Count returns the number of hits.
func (r *ResultList) Count() int {
	return len(r.hits)
}

// IsEmpty returns whether the list is empty.
func (r *ResultList) IsEmpty() bool {
	return len(r.hits) == 0
}
