package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mediguide-lk/mediguide/internal/config"
)

var (
	cfgFile      string
	envFile      string
	verbose      bool
	outputFormat string
	langFlag     string
)

var rootCmd = &cobra.Command{
	Use:   "mediguide",
	Short: "AI-assisted medicine and first-aid guidance for Sri Lanka",
	Long: `MediGuide answers everyday medicine questions in English or Sinhala:
medicine lookups, symptom triage, first-aid steps for emergencies,
interaction checks, dosage schedules, identification from a photo and
nearby pharmacies. Emergency steps for common situations come from a
reviewed table and always include the 1990 ambulance line.

Run it as a CLI, as an HTTP API (serve) or as an MCP server (mcp).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return config.LoadDotEnv(envFile)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.FileName, "config file path")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", formatMarkdown, "output format: markdown, json or html")
	rootCmd.PersistentFlags().StringVarP(&langFlag, "lang", "l", "", "answer language (English, Sinhala, en, si); defaults to the config")
}
