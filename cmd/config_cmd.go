package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/theirongolddev/cinspect/internal/config"
	"github.com/theirongolddev/cinspect/internal/tui/theme"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the current settings to the config file",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configThemeCmd = &cobra.Command{
	Use:       "theme <name>",
	Short:     "Set the TUI color theme",
	Args:      cobra.ExactArgs(1),
	ValidArgs: theme.Names(),
	RunE:      runConfigTheme,
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configThemeCmd)
	rootCmd.AddCommand(configCmd)
}

func configPath() string {
	if flagConfigPath != "" {
		return flagConfigPath
	}
	return config.Path()
}

func runConfig(_ *cobra.Command, _ []string) error {
	fmt.Printf("  Config file: %s\n", configPath())
	if config.Exists() || flagConfigPath != "" {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Claude directory:  %s\n", flagDataDir)
	fmt.Printf("    Page size:         %d\n", cfg.General.PageSize)
	fmt.Println()

	f := cfg.Filter.ToFilter()
	fmt.Println("  [Filter]")
	fmt.Printf("    Messages:      %s\n", f.Messages)
	fmt.Printf("    Total tokens:  %s\n", f.TotalTokens)
	fmt.Printf("    Input tokens:  %s\n", f.InputTokens)
	fmt.Printf("    Output tokens: %s\n", f.OutputTokens)
	if f.Branch != "" {
		fmt.Printf("    Branch:        %s\n", f.Branch)
	}
	if f.StartDate != "" || f.EndDate != "" {
		fmt.Printf("    Dates:         %s .. %s\n", orAny(f.StartDate), orAny(f.EndDate))
	}
	fmt.Println()

	fmt.Println("  [Server]")
	fmt.Printf("    Address:       %s\n", cfg.Server.Addr)
	fmt.Printf("    Watch:         %v\n", cfg.Server.Watch)
	fmt.Printf("    Events buffer: %d\n", cfg.Server.EventsBuffer)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  Run `cinspect config init` to write a config file.")
	return nil
}

func orAny(s string) string {
	if s == "" {
		return "any"
	}
	return s
}

func runConfigInit(_ *cobra.Command, _ []string) error {
	path := configPath()
	if err := config.SaveTo(path, cfg); err != nil {
		return err
	}
	fmt.Printf("  Saved to %s\n", path)
	return nil
}

func runConfigTheme(_ *cobra.Command, args []string) error {
	name := args[0]
	if !slices.Contains(theme.Names(), name) {
		return fmt.Errorf("unknown theme %q (available: %s)", name, strings.Join(theme.Names(), ", "))
	}
	cfg.Appearance.Theme = name
	path := configPath()
	if err := config.SaveTo(path, cfg); err != nil {
		return err
	}
	fmt.Printf("  Theme set to %s in %s\n", name, path)
	return nil
}
