package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mediguide-lk/mediguide/internal/advisory"
	"github.com/mediguide-lk/mediguide/internal/history"
)

var (
	historyKind  string
	historyLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Search earlier answers",
}

var historySearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Find earlier answers by meaning",
	Long: `Searches answers given from this machine (CLI, MCP and anonymous API
requests). Requires history.enabled in the config.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var kind advisory.Kind
		if historyKind != "" {
			k, ok := advisory.ParseKind(historyKind)
			if !ok {
				return fmt.Errorf("unknown kind %q", historyKind)
			}
			kind = k
		}

		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		if a.History == nil {
			return fmt.Errorf("history is disabled; set history.enabled: true in %s", cfgFile)
		}

		hits, err := a.History.Search(cmd.Context(), history.Query{
			Text:  strings.Join(args, " "),
			Kind:  kind,
			Limit: historyLimit,
		})
		if err != nil {
			return err
		}

		if outputFormat == formatJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(hits)
		}
		if len(hits) == 0 {
			fmt.Println("No earlier answers found.")
			return nil
		}
		for _, h := range hits {
			fmt.Printf("%.2f  %-14s %s  %s\n", h.Similarity, h.Kind, h.CompletedAt.Local().Format("2006-01-02 15:04"), h.Query)
		}
		return nil
	},
}

func init() {
	historySearchCmd.Flags().StringVar(&historyKind, "kind", "", "only answers of this kind")
	historySearchCmd.Flags().IntVarP(&historyLimit, "limit", "n", 5, "maximum results")
	historyCmd.AddCommand(historySearchCmd)
	rootCmd.AddCommand(historyCmd)
}
