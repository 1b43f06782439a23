package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/theirongolddev/cinspect/internal/mcpserver"

	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the session index as MCP tools over stdio",
	Long: "Serve the session index as Model Context Protocol tools on stdin/stdout.\n" +
		"Register it with an MCP client as: cinspect mcp",
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(_ *cobra.Command, _ []string) error {
	// stdout carries the protocol.
	flagQuiet = true

	ix, err := openIndex()
	if err != nil {
		return err
	}
	defer func() { _ = ix.Close() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	svc := mcpserver.New(ix, version)
	if err := svc.ServeStdio(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
