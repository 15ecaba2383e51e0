package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	apiBase string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "smartdocq",
	Short: "Ask questions about your uploaded documents",
	Long: `SmartDocQ uploads documents to a Q&A backend and lets you hold a
conversation about each one: ask questions, rate answers, preview the
document, and share a conversation with a read-only link.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (default <data-dir>/config.yml)")
	rootCmd.PersistentFlags().StringVar(&apiBase, "api-base", "", "API base URL (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
