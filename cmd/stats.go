package cmd

import (
	"fmt"

	"github.com/theirongolddev/cinspect/internal/cli"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index size and per-model usage",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(_ *cobra.Command, _ []string) error {
	ix, err := openIndex()
	if err != nil {
		return err
	}
	defer func() { _ = ix.Close() }()

	st := ix.CacheStats()
	models, err := ix.ModelBreakdown()
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("INDEX  " + flagDataDir))
	fmt.Println()
	fmt.Printf("  Sessions cached:      %s\n", cli.FormatNumber(int64(st.SessionsCached)))
	fmt.Printf("  Loaded with messages: %s\n", cli.FormatNumber(int64(st.SessionsWithMessages)))
	fmt.Printf("  Messages in memory:   %s\n", cli.FormatNumber(int64(st.MessagesInCache)))
	fmt.Printf("  Memory estimate:      %.1f MB\n", st.MemoryEstimateMB)

	if len(models) > 0 {
		fmt.Println()
		fmt.Print(cli.RenderTable(cli.ModelTable(models)))
	}
	return nil
}
