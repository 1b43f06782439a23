// Package cmd implements the cinspect CLI commands.
package cmd

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/theirongolddev/cinspect/internal/cli"
	"github.com/theirongolddev/cinspect/internal/config"
	"github.com/theirongolddev/cinspect/internal/index"

	"github.com/spf13/cobra"
)

// version is stamped at build time with -ldflags "-X ...cmd.version=...".
var version = "dev"

var (
	flagDataDir    string
	flagConfigPath string
	flagQuiet      bool
	flagPageSize   int
	flagVerbose    bool
)

// cfg is loaded once before any subcommand runs.
var cfg config.Config

var rootCmd = &cobra.Command{
	Use:     "cinspect",
	Short:   "Browse Claude Code session logs",
	Long:    "Index, filter, and read Claude Code conversation logs from the terminal, over HTTP, or through MCP.",
	Version: version,
	RunE:    runTUI,

	PersistentPreRunE: loadConfig,
	SilenceUsage:      true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagDataDir, "data-dir", "d", "", "Claude data directory (default $CLAUDE_CONFIG_DIR or ~/.claude)")
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "Config file (default "+config.Path()+")")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log skipped lines and file errors to stderr")
	rootCmd.PersistentFlags().IntVar(&flagPageSize, "page-size", 0, "Messages per page (default from config, 20)")
}

func loadConfig(_ *cobra.Command, _ []string) error {
	var err error
	if flagConfigPath != "" {
		cfg, err = config.LoadFrom(flagConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	flagDataDir = cfg.ResolveClaudeDir(flagDataDir)
	if flagPageSize <= 0 {
		flagPageSize = cfg.General.PageSize
	}
	return nil
}

// newLogger returns the diagnostics logger. Output is discarded unless
// --verbose is set.
func newLogger() *log.Logger {
	if !flagVerbose {
		return log.New(io.Discard, "", 0)
	}
	return log.New(os.Stderr, "cinspect: ", log.LstdFlags)
}

// openIndex builds the index and runs the initial scan, reporting progress
// on stderr. Callers must Close the index.
func openIndex() (*index.Index, error) {
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Scanning sessions...\n")
	}

	progressFn := func(current, total int) {
		if flagQuiet {
			return
		}
		if current%100 == 0 || current == total {
			fmt.Fprintf(os.Stderr, "\r  Parsing [%d/%d]", current, total)
		}
	}

	ix, err := index.Open(index.Options{
		ClaudeDir: flagDataDir,
		PageSize:  flagPageSize,
		Logger:    newLogger(),
		Progress:  progressFn,
	})
	if err != nil {
		return nil, err
	}

	result, err := ix.Load()
	if err != nil {
		_ = ix.Close()
		return nil, err
	}

	if !flagQuiet && result.TotalFiles > 0 {
		fmt.Fprintf(os.Stderr, "\r  Indexed %s sessions across %d projects    \n",
			cli.FormatNumber(int64(len(result.Sessions))),
			result.ProjectCount,
		)
	}
	return ix, nil
}

// newServerLogger returns the request logger for long-running servers. It
// always writes to stderr, which detached mode redirects to the log file.
func newServerLogger() *log.Logger {
	return log.New(os.Stderr, "", log.LstdFlags)
}
