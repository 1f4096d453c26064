package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mediguide-lk/mediguide/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a mediguide configuration with an interactive wizard",
	Long:  `Runs an interactive wizard that picks the AI provider, answer language and server settings, then writes .mediguide.yml.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
