package cmd

import (
	"fmt"

	"github.com/theirongolddev/cinspect/internal/tui"
	"github.com/theirongolddev/cinspect/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive session browser (default)",
	Args:  cobra.NoArgs,
	RunE:  runTUI,
}

func init() {
	addFilterFlags(tuiCmd)
	addFilterFlags(rootCmd)
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	filter, err := resolveFilter(cmd)
	if err != nil {
		return err
	}

	theme.SetActive(cfg.Appearance.Theme)

	// Force TrueColor profile so all background styling produces ANSI codes
	// Without this, lipgloss may default to Ascii profile (no colors)
	lipgloss.SetColorProfile(termenv.TrueColor)

	app, err := tui.NewApp(tui.Options{
		ClaudeDir: flagDataDir,
		Filter:    filter,
		PageSize:  flagPageSize,
		Watch:     true,
	})
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}
