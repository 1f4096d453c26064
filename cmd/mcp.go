package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mediguide-lk/mediguide/internal/app"
	mcpserver "github.com/mediguide-lk/mediguide/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long: `Starts a Model Context Protocol (MCP) server on stdio, exposing the
advisory kinds and the emergency table as tools for AI agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		// stdout carries the protocol; the standard logger stays on stderr.
		a, err := app.Build(context.Background(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		lang, err := language(a)
		if err != nil {
			return err
		}

		mcpserver.Version = Version
		indexed := 0
		if a.History != nil {
			indexed = a.History.Count()
		}
		fmt.Fprintf(os.Stderr, "mediguide MCP server started on stdio (provider=%s, language=%s, history=%d)\n",
			cfg.Provider, lang, indexed)

		return mcpserver.NewServer(a.Orchestrator, a.History, lang).Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
