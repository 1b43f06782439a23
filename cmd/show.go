package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/theirongolddev/cinspect/internal/cli"
	"github.com/theirongolddev/cinspect/internal/index"
	"github.com/theirongolddev/cinspect/internal/model"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var showCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Print one page of a session's messages",
	Long:  "Print one page of a session's messages as Markdown. The id may be any unique prefix.",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var agentCmd = &cobra.Command{
	Use:   "agent <session-id> <agent-id>",
	Short: "Print one page of an agent side-chain",
	Args:  cobra.ExactArgs(2),
	RunE:  runAgent,
}

var (
	showPage  int
	showSize  int
	showRaw   bool
	showStyle string
)

func init() {
	for _, c := range []*cobra.Command{showCmd, agentCmd} {
		c.Flags().IntVarP(&showPage, "page", "p", 1, "Page number (clamped to the last page)")
		c.Flags().IntVarP(&showSize, "size", "s", 0, "Messages per page (default --page-size)")
		c.Flags().BoolVar(&showRaw, "raw", false, "Print Markdown source without terminal styling")
		c.Flags().StringVar(&showStyle, "style", "", "Glamour style: dark, light, notty (default: detect)")
		rootCmd.AddCommand(c)
	}
}

func runShow(_ *cobra.Command, args []string) error {
	ix, err := openIndex()
	if err != nil {
		return err
	}
	defer func() { _ = ix.Close() }()

	id, err := resolveSessionID(ix, args[0])
	if err != nil {
		return err
	}
	sum, err := ix.Summary(id)
	if err != nil {
		return err
	}
	page, err := ix.Page(id, showPage, showSize)
	if err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", sum.Description)
	fmt.Fprintf(&b, "`%s` · %s · %s · %s tokens\n\n",
		sum.SessionID, sum.Project, sum.BranchLabel(), cli.FormatTokens(sum.TotalTokens))
	b.WriteString(cli.PageMarkdown("Messages", page.Messages, page.Page, page.TotalPages, page.Total))
	if err := printMarkdown(b.String()); err != nil {
		return err
	}

	agents, err := ix.Agents(id)
	if err != nil {
		return err
	}
	if len(agents) > 0 {
		fmt.Println()
		fmt.Print(cli.RenderTable(cli.AgentTable(agents)))
		fmt.Println(cli.Muted(fmt.Sprintf("\n  cinspect agent %s <agent-id> to read one", shortSessionArg(id))))
	}
	return nil
}

func runAgent(_ *cobra.Command, args []string) error {
	ix, err := openIndex()
	if err != nil {
		return err
	}
	defer func() { _ = ix.Close() }()

	id, err := resolveSessionID(ix, args[0])
	if err != nil {
		return err
	}
	page, err := ix.AgentPage(id, args[1], showPage, showSize)
	if err != nil {
		return err
	}

	title := fmt.Sprintf("Agent %s of %s", args[1], shortSessionArg(id))
	return printMarkdown(cli.PageMarkdown(title, page.Messages, page.Page, page.TotalPages, page.Total))
}

// resolveSessionID accepts a full session id or a unique prefix of one.
func resolveSessionID(ix *index.Index, arg string) (string, error) {
	if _, err := ix.Summary(arg); err == nil {
		return arg, nil
	} else if !errors.Is(err, index.ErrNotFound) {
		return "", err
	}

	rows, err := ix.List(model.Filter{})
	if err != nil {
		return "", err
	}
	var matches []string
	for _, r := range rows {
		if strings.HasPrefix(r.SessionID, arg) {
			matches = append(matches, r.SessionID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("session %s: %w", arg, index.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("session prefix %q is ambiguous (%d matches)", arg, len(matches))
	}
}

func shortSessionArg(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}

// printMarkdown styles md with glamour when stdout is a terminal.
func printMarkdown(md string) error {
	if showRaw || !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Print(md)
		return nil
	}
	out, err := cli.RenderMarkdown(md, cli.TerminalWidth(os.Stdout), showStyle)
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}
