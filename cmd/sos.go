package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/mediguide-lk/mediguide/internal/advisory"
	"github.com/mediguide-lk/mediguide/internal/curated"
)

var sosCmd = &cobra.Command{
	Use:     "sos [situation]",
	Aliases: []string{"emergency"},
	Short:   "First-aid steps for an emergency",
	Long: `Shows first-aid steps for an emergency. Snake bites, dog bites, choking,
severe bleeding, poisoning and heart attacks use reviewed content; other
situations are answered by the AI provider.

Without an argument an interactive picker lists the known situations.`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintf(os.Stderr, "In a life-threatening emergency call %s first.\n\n", advisory.EmergencyNumber)

		situation := strings.Join(args, " ")
		if situation == "" {
			picked, err := pickSituation()
			if err != nil {
				return err
			}
			situation = picked
		}
		return runAdvisory(cmd.Context(), func(lang advisory.Language) advisory.Request {
			return advisory.Request{Kind: advisory.KindEmergencyAid, Language: lang, Text: situation}
		})
	},
}

func pickSituation() (string, error) {
	lang := advisory.English
	if l, ok := advisory.ParseLanguage(langFlag); ok {
		lang = l
	}
	all := curated.All()
	items := make([]string, len(all))
	for i, s := range all {
		items[i] = curated.Label(s, lang)
	}
	prompt := promptui.Select{
		Label: "Select the emergency",
		Items: items,
		Size:  len(items),
	}
	_, label, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("situation selection: %w", err)
	}
	return label, nil
}

var situationsCmd = &cobra.Command{
	Use:   "situations",
	Short: "List emergency situations with reviewed first-aid content",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Emergency number: %s\n\n", advisory.EmergencyNumber)
		for _, s := range curated.All() {
			fmt.Printf("  %-16s %s\n", curated.Label(s, advisory.English), curated.Label(s, advisory.Sinhala))
		}
	},
}

func init() {
	sosCmd.AddCommand(situationsCmd)
	rootCmd.AddCommand(sosCmd)
}
