// Package facets provides the facet sidebar used to filter search results.
package facets

import (
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/docsift/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docsift/internal/core/domain"
)

// row is one selectable facet value.
type row struct {
	facet string
	value string
	label string
	count int
}

// Sidebar lists facet buckets and tracks which values are active filters.
// Active values stay listed after a refresh even when the filtered result
// set no longer produces them, so they can be switched off again.
type Sidebar struct {
	styles   *styles.Styles
	rows     []row
	filters  domain.SearchFilters
	selected int
	width    int
	height   int
}

// NewSidebar creates an empty sidebar.
func NewSidebar(s *styles.Styles) *Sidebar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &Sidebar{
		styles:  s,
		filters: domain.SearchFilters{},
		width:   28,
		height:  20,
	}
}

// SetFacets rebuilds the rows from a facet set in the canonical facet order.
func (f *Sidebar) SetFacets(set domain.FacetSet) {
	f.rows = f.rows[:0]
	for _, name := range domain.FacetNames() {
		seen := make(map[string]bool)
		for _, b := range set[name] {
			seen[b.Value] = true
			f.rows = append(f.rows, row{facet: name, value: b.Value, label: b.Label, count: b.Count})
		}
		active := append([]string(nil), f.filters[name]...)
		sort.Strings(active)
		for _, v := range active {
			if !seen[v] {
				f.rows = append(f.rows, row{facet: name, value: v, label: v})
			}
		}
	}
	if f.selected >= len(f.rows) {
		f.selected = max(len(f.rows)-1, 0)
	}
}

// Toggle switches the selected value on or off and reports what changed.
// ok is false when there is nothing to toggle.
func (f *Sidebar) Toggle() (facet, value string, ok bool) {
	if f.selected < 0 || f.selected >= len(f.rows) {
		return "", "", false
	}
	r := f.rows[f.selected]
	values := f.filters[r.facet]
	for i, v := range values {
		if v == r.value {
			values = append(values[:i:i], values[i+1:]...)
			if len(values) == 0 {
				delete(f.filters, r.facet)
			} else {
				f.filters[r.facet] = values
			}
			return r.facet, r.value, true
		}
	}
	f.filters[r.facet] = append(values, r.value)
	return r.facet, r.value, true
}

// IsActive reports whether a facet value is an active filter.
func (f *Sidebar) IsActive(facet, value string) bool {
	for _, v := range f.filters[facet] {
		if v == value {
			return true
		}
	}
	return false
}

// Filters returns a copy of the active filters.
func (f *Sidebar) Filters() domain.SearchFilters {
	out := make(domain.SearchFilters, len(f.filters))
	for k, v := range f.filters {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// ActiveCount returns the number of active filter values.
func (f *Sidebar) ActiveCount() int {
	n := 0
	for _, v := range f.filters {
		n += len(v)
	}
	return n
}

// Clear drops all active filters.
func (f *Sidebar) Clear() {
	f.filters = domain.SearchFilters{}
}

// Reset clears rows, filters and selection.
func (f *Sidebar) Reset() {
	f.rows = nil
	f.selected = 0
	f.Clear()
}

// MoveUp moves the selection up.
func (f *Sidebar) MoveUp() {
	if f.selected > 0 {
		f.selected--
	}
}

// MoveDown moves the selection down.
func (f *Sidebar) MoveDown() {
	if f.selected < len(f.rows)-1 {
		f.selected++
	}
}

// Len returns the number of selectable values.
func (f *Sidebar) Len() int {
	return len(f.rows)
}

// Selected returns the selected row index.
func (f *Sidebar) Selected() int {
	return f.selected
}

// SetDimensions sets the sidebar size.
func (f *Sidebar) SetDimensions(width, height int) {
	f.width = width
	f.height = height
}

// Width returns the sidebar width.
func (f *Sidebar) Width() int {
	return f.width
}

// View renders the sidebar; focused changes the frame and shows the cursor.
func (f *Sidebar) View(focused bool) string {
	var b strings.Builder
	b.WriteString(f.styles.Subtitle.Render("Facets"))
	b.WriteString("\n")

	if len(f.rows) == 0 {
		b.WriteString(f.styles.Muted.Render("none"))
	}

	current := ""
	for i, r := range f.rows {
		if r.facet != current {
			current = r.facet
			b.WriteString("\n")
			b.WriteString(f.styles.Muted.Render(facetTitle(r.facet)))
			b.WriteString("\n")
		}

		cursor := "  "
		if focused && i == f.selected {
			cursor = "> "
		}
		mark := "[ ]"
		if f.IsActive(r.facet, r.value) {
			mark = "[x]"
		}
		line := fmt.Sprintf("%s%s %s (%d)", cursor, mark, r.label, r.count)

		switch {
		case focused && i == f.selected:
			b.WriteString(f.styles.Selected.Render(line))
		case f.IsActive(r.facet, r.value):
			b.WriteString(f.styles.FacetActive.Render(line))
		default:
			b.WriteString(f.styles.Normal.Render(line))
		}
		b.WriteString("\n")
	}

	frame := f.styles.Pane
	if focused {
		frame = f.styles.PaneFocused
	}
	return frame.Width(f.width).Render(strings.TrimRight(b.String(), "\n"))
}

// facetTitle turns a facet name such as page_range into "Page range".
func facetTitle(name string) string {
	s := strings.ReplaceAll(name, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
