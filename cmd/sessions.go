package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/theirongolddev/cinspect/internal/cli"
	"github.com/theirongolddev/cinspect/internal/model"

	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List sessions, newest first",
	Args:  cobra.NoArgs,
	RunE:  runSessions,
}

var (
	sessionsLimit int
	sessionsJSON  bool
)

// filterFlags mirror model.Filter. Unset flags keep the configured value.
var filterFlags struct {
	minMessages, maxMessages int64
	minTokens, maxTokens     int64
	minInput, maxInput       int64
	minOutput, maxOutput     int64
	branch                   string
	since, until             string
}

func addFilterFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Int64Var(&filterFlags.minMessages, "min-messages", 0, "Minimum user+assistant messages")
	f.Int64Var(&filterFlags.maxMessages, "max-messages", 0, "Maximum user+assistant messages (default unbounded)")
	f.Int64Var(&filterFlags.minTokens, "min-tokens", 0, "Minimum total tokens")
	f.Int64Var(&filterFlags.maxTokens, "max-tokens", 0, "Maximum total tokens (default unbounded)")
	f.Int64Var(&filterFlags.minInput, "min-input-tokens", 0, "Minimum input tokens")
	f.Int64Var(&filterFlags.maxInput, "max-input-tokens", 0, "Maximum input tokens (default unbounded)")
	f.Int64Var(&filterFlags.minOutput, "min-output-tokens", 0, "Minimum output tokens")
	f.Int64Var(&filterFlags.maxOutput, "max-output-tokens", 0, "Maximum output tokens (default unbounded)")
	f.StringVarP(&filterFlags.branch, "branch", "b", "", "Git branch substring (case-insensitive)")
	f.StringVar(&filterFlags.since, "since", "", "Earliest start date, YYYY-MM-DD (inclusive)")
	f.StringVar(&filterFlags.until, "until", "", "Latest start date, YYYY-MM-DD (inclusive)")
}

// resolveFilter overlays explicitly set filter flags on the configured filter.
func resolveFilter(cmd *cobra.Command) (model.Filter, error) {
	f := cfg.Filter.ToFilter()
	flags := cmd.Flags()

	bounds := []struct {
		min, max   string
		r          *model.Range
		minV, maxV int64
	}{
		{"min-messages", "max-messages", &f.Messages, filterFlags.minMessages, filterFlags.maxMessages},
		{"min-tokens", "max-tokens", &f.TotalTokens, filterFlags.minTokens, filterFlags.maxTokens},
		{"min-input-tokens", "max-input-tokens", &f.InputTokens, filterFlags.minInput, filterFlags.maxInput},
		{"min-output-tokens", "max-output-tokens", &f.OutputTokens, filterFlags.minOutput, filterFlags.maxOutput},
	}
	for _, b := range bounds {
		if flags.Changed(b.min) {
			b.r.Min = b.minV
		}
		if flags.Changed(b.max) {
			b.r.Max = model.AtMost(b.maxV)
		}
	}
	if flags.Changed("branch") {
		f.Branch = filterFlags.branch
	}
	if flags.Changed("since") {
		f.StartDate = filterFlags.since
	}
	if flags.Changed("until") {
		f.EndDate = filterFlags.until
	}

	if err := f.Validate(); err != nil {
		return model.Filter{}, err
	}
	return f, nil
}

func init() {
	sessionsCmd.Flags().IntVarP(&sessionsLimit, "limit", "l", 20, "Number of sessions to show (0 = all)")
	sessionsCmd.Flags().BoolVar(&sessionsJSON, "json", false, "Print JSON instead of a table")
	addFilterFlags(sessionsCmd)
	rootCmd.AddCommand(sessionsCmd)
}

func runSessions(cmd *cobra.Command, _ []string) error {
	filter, err := resolveFilter(cmd)
	if err != nil {
		return err
	}

	ix, err := openIndex()
	if err != nil {
		return err
	}
	defer func() { _ = ix.Close() }()

	rows, err := ix.List(filter)
	if err != nil {
		return err
	}
	total := len(rows)
	if sessionsLimit > 0 && len(rows) > sessionsLimit {
		rows = rows[:sessionsLimit]
	}

	if sessionsJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	if len(rows) == 0 {
		fmt.Println("\n  No sessions match the current filters.")
		return nil
	}

	title := fmt.Sprintf("SESSIONS  showing %d of %d", len(rows), total)
	if n := filter.ActiveCount(); n > 0 {
		title += fmt.Sprintf("  (%d filters)", n)
	}
	fmt.Println()
	fmt.Println(cli.RenderTitle(title))
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.SessionTable(rows, time.Now())))
	return nil
}
