package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mediguide-lk/mediguide/internal/audit"
)

var (
	auditAction    string
	auditFamily    string
	auditOutcome   string
	auditLimit     int
	auditOlderThan time.Duration
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect or prune the audit trail",
}

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent audit entries, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		filter := audit.QueryFilter{
			Action:       audit.Action(auditAction),
			ActionPrefix: audit.FamilyPrefix(auditFamily),
			Outcome:      audit.Outcome(auditOutcome),
			Limit:        auditLimit,
		}
		entries, err := a.Audit.Query(cmd.Context(), filter)
		if err != nil {
			return err
		}

		if outputFormat == formatJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(entries)
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TIME\tACTOR\tACTION\tOUTCOME\tSUBJECT")
		for _, e := range entries {
			actor := string(e.ActorType)
			if e.ActorID != "" {
				actor += ":" + e.ActorID
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				e.Timestamp.Local().Format("2006-01-02 15:04:05"), actor, e.Action, e.Outcome, e.Subject)
		}
		return tw.Flush()
	},
}

var auditPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete audit entries older than a duration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if auditOlderThan <= 0 {
			return fmt.Errorf("--older-than must be positive")
		}
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.Audit.DeleteBefore(cmd.Context(), time.Now().Add(-auditOlderThan))
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d audit entries.\n", n)
		return nil
	},
}

func init() {
	auditListCmd.Flags().StringVar(&auditAction, "action", "", "exact action, e.g. auth.login")
	auditListCmd.Flags().StringVar(&auditFamily, "family", "", "action family, e.g. advisory or inquiry")
	auditListCmd.Flags().StringVar(&auditOutcome, "outcome", "", "success, failure, rejected or stale")
	auditListCmd.Flags().IntVarP(&auditLimit, "limit", "n", 50, "maximum entries")
	auditPruneCmd.Flags().DurationVar(&auditOlderThan, "older-than", 90*24*time.Hour, "age of entries to delete")
	auditCmd.AddCommand(auditListCmd)
	auditCmd.AddCommand(auditPruneCmd)
	rootCmd.AddCommand(auditCmd)
}
