// Package documents provides the documents list view component for the TUI.
package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docsift/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docsift/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docsift/internal/core/domain"
	"github.com/custodia-labs/docsift/internal/core/ports/driving"
)

// ErrNoDocumentService is reported when no document service is wired.
var ErrNoDocumentService = errors.New("document service not available")

// View lists every stored document, merged ones included.
type View struct {
	styles          *styles.Styles
	documentService driving.DocumentService
	ctx             context.Context

	documents     []domain.Document
	selected      int
	scrollOffset  int
	width         int
	height        int
	loading       bool
	confirmDelete bool
	err           error
}

// NewView creates a new documents view.
func NewView(s *styles.Styles, documentService driving.DocumentService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:          s,
		documentService: documentService,
		ctx:             context.Background(),
		width:           80,
		height:          24,
	}
}

// WithContext sets the context for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the document list.
func (v *View) Init() tea.Cmd {
	v.loading = true
	v.confirmDelete = false
	return v.loadDocuments()
}

func (v *View) loadDocuments() tea.Cmd {
	svc, ctx := v.documentService, v.ctx
	return func() tea.Msg {
		if svc == nil {
			return messages.DocumentsLoaded{Err: ErrNoDocumentService}
		}
		docs, err := svc.List(ctx)
		return messages.DocumentsLoaded{Documents: docs, Err: err}
	}
}

// Update handles messages for the documents view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.DocumentsLoaded:
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.documents = msg.Documents
			if v.selected >= len(v.documents) {
				v.selected = max(len(v.documents)-1, 0)
			}
			v.adjustScroll()
		}
		return v, nil

	case messages.DocumentDeleted:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.loading = true
		return v, v.loadDocuments()

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if v.confirmDelete {
		v.confirmDelete = false
		if msg.String() == "y" {
			if doc := v.SelectedDocument(); doc != nil {
				return v, v.deleteDocument(doc.ID)
			}
		}
		return v, nil
	}

	switch msg.String() {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
			v.adjustScroll()
		}
	case "down", "j":
		if v.selected < len(v.documents)-1 {
			v.selected++
			v.adjustScroll()
		}
	case "enter":
		if doc := v.SelectedDocument(); doc != nil {
			selected := *doc
			return v, func() tea.Msg {
				return messages.DocumentSelected{Document: selected, Back: messages.ViewDocuments}
			}
		}
	case "i":
		if doc := v.SelectedDocument(); doc != nil {
			return v, v.loadDetails(doc.ID)
		}
	case "d":
		if v.SelectedDocument() != nil {
			v.confirmDelete = true
		}
	case "r":
		v.loading = true
		return v, v.loadDocuments()
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}
	return v, nil
}

func (v *View) loadDetails(id string) tea.Cmd {
	svc, ctx := v.documentService, v.ctx
	return func() tea.Msg {
		if svc == nil {
			return messages.DocumentDetailsLoaded{DocumentID: id, Err: ErrNoDocumentService}
		}
		details, err := svc.GetDetails(ctx, id)
		return messages.DocumentDetailsLoaded{DocumentID: id, Details: details, Err: err}
	}
}

func (v *View) deleteDocument(id string) tea.Cmd {
	svc, ctx := v.documentService, v.ctx
	return func() tea.Msg {
		if svc == nil {
			return messages.DocumentDeleted{DocumentID: id, Err: ErrNoDocumentService}
		}
		return messages.DocumentDeleted{DocumentID: id, Err: svc.Delete(ctx, id)}
	}
}

func (v *View) adjustScroll() {
	visible := v.visibleItemCount()
	if v.selected < v.scrollOffset {
		v.scrollOffset = v.selected
	} else if v.selected >= v.scrollOffset+visible {
		v.scrollOffset = v.selected - visible + 1
	}
}

func (v *View) visibleItemCount() int {
	return max(v.height-8, 1)
}

// View renders the documents view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Documents (%d)", len(v.documents))))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading documents..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.documents) == 0:
		b.WriteString(v.styles.Muted.Render("No documents yet. Add some with 'docsift ingest'."))
	default:
		end := min(v.scrollOffset+v.visibleItemCount(), len(v.documents))
		for i := v.scrollOffset; i < end; i++ {
			b.WriteString(v.renderDocument(i, &v.documents[i]))
			b.WriteString("\n")
		}
		if len(v.documents) > v.visibleItemCount() {
			b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d-%d of %d]", v.scrollOffset+1, end, len(v.documents))))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	if v.confirmDelete {
		if doc := v.SelectedDocument(); doc != nil {
			b.WriteString(v.styles.Warning.Render(fmt.Sprintf("Delete %s and its chunks? [y/N]", doc.FileName)))
			return b.String()
		}
	}
	b.WriteString(v.styles.Help.Render("[↑/↓] navigate  [enter] content  [i] details  [d] delete  [r] reload  [esc] back"))
	return b.String()
}

func (v *View) renderDocument(index int, doc *domain.Document) string {
	indicator := "  "
	if index == v.selected {
		indicator = "> "
	}

	name := doc.FileName
	if name == "" {
		name = doc.ID
	}
	nameWidth := max(v.width/2-4, 10)
	if len(name) > nameWidth {
		name = name[:nameWidth-3] + "..."
	}

	info := fmt.Sprintf("%d pages", doc.PageCount)
	if doc.Status == domain.StatusMerged && doc.MergedInto != nil {
		info = "merged into " + *doc.MergedInto
	}

	if index == v.selected {
		return v.styles.Selected.Render(fmt.Sprintf("%s%-*s  %s", indicator, nameWidth, name, info))
	}
	return v.styles.Normal.Render(fmt.Sprintf("%s%-*s  ", indicator, nameWidth, name)) +
		v.styles.Muted.Render(info)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
}

// Documents returns the current list of documents.
func (v *View) Documents() []domain.Document {
	return v.documents
}

// SelectedIndex returns the currently selected document index.
func (v *View) SelectedIndex() int {
	return v.selected
}

// SelectedDocument returns the selected document, nil when the list is empty.
func (v *View) SelectedDocument() *domain.Document {
	if v.selected < 0 || v.selected >= len(v.documents) {
		return nil
	}
	return &v.documents[v.selected]
}

// ConfirmingDelete reports whether a delete confirmation is pending.
func (v *View) ConfirmingDelete() bool {
	return v.confirmDelete
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
