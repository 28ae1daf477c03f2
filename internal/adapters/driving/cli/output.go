package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true)
	accentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500"))
)

func addFormatFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVarP(target, "format", "o", formatText, "output format: text, json or yaml")
}

func checkFormat(format string) error {
	switch format {
	case formatText, formatJSON, formatYAML:
		return nil
	default:
		return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
	}
}

// writeStructured encodes v as JSON or YAML.
func writeStructured(w io.Writer, format string, v any) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		return nil
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// styled reports whether w is a terminal that should get colours.
func styled(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// painter renders styles only on terminals so redirected output stays plain.
type painter struct {
	on bool
}

func newPainter(w io.Writer) painter {
	return painter{on: styled(w)}
}

func (p painter) heading(s string) string { return p.render(headingStyle, s) }
func (p painter) accent(s string) string  { return p.render(accentStyle, s) }
func (p painter) muted(s string) string   { return p.render(mutedStyle, s) }
func (p painter) warn(s string) string    { return p.render(warnStyle, s) }

func (p painter) render(style lipgloss.Style, s string) string {
	if !p.on {
		return s
	}
	return style.Render(s)
}

// preview shortens text to n runes on one line.
func preview(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}

func pageLabel(page *int) string {
	if page == nil {
		return "cross-page"
	}
	return fmt.Sprintf("page %d", *page)
}
