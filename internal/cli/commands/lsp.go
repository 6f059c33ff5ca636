package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ansible-tools/ansible-ls/internal/cli/config"
	"github.com/ansible-tools/ansible-ls/internal/lsp"
	"github.com/spf13/cobra"
)

// NewLSPCommand creates the LSP command
func NewLSPCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "lsp",
		Short: "Start the Language Server Protocol server",
		Long: `Start the ansible-ls Language Server Protocol (LSP) server.

The server validates Ansible playbooks on open and on every change by
running ansible-playbook --syntax-check and publishing the warnings and
errors it reports as diagnostics.

The LSP server communicates via JSON-RPC over stdin/stdout.
It is typically started automatically by your editor/IDE.`,
		RunE: runLSP,
	}
}

func runLSP(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	server := lsp.NewServer(cfg.Checker.Command)
	server.SetMaxProblems(cfg.Checker.MaxProblems)

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	// Run server
	return server.Run(ctx)
}
