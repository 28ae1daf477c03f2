package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/docsift/internal/adapters/driving/tui"
	"github.com/custodia-labs/docsift/internal/core/ports/driving"
)

// TUIConfig holds the services the TUI needs.
type TUIConfig struct {
	SearchService   driving.SearchService
	DocumentService driving.DocumentService
	SettingsService driving.SettingsService
}

// tuiConfig holds the current TUI configuration.
var tuiConfig *TUIConfig

// tuiCmd represents the tui command.
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal user interface for docsift.

Search the corpus, narrow results with the facet sidebar and browse
stored documents with keyboard navigation.

Controls:
  ↑/k, ↓/j - Navigate
  Enter    - Search / Open
  Tab      - Switch between results and facets
  Space    - Toggle a facet filter
  m        - Cycle search mode
  Esc      - Back
  q        - Quit (from the menu)`,
	RunE: runTUI,
}

// SetTUIConfig sets the configuration for the TUI command.
func SetTUIConfig(config *TUIConfig) {
	tuiConfig = config
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	ports := &tui.Ports{}
	if tuiConfig != nil {
		ports.Search = tuiConfig.SearchService
		ports.Document = tuiConfig.DocumentService
		ports.Settings = tuiConfig.SettingsService
	}

	app, err := tui.NewApp(ports)
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(commandContext(cmd))

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(commandContext(cmd)))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
