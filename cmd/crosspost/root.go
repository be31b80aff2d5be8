package main

import (
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "crosspost",
	Short: "Crosspost - Telegram-driven social media cross-poster",
	Long: `Crosspost is a self-hosted Telegram bot that publishes posts to
Bluesky and Mastodon, immediately or on a schedule. Scheduled posts
survive restarts via a JSON file store.`,
	Version: Version,
}

func init() {
	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(serveCmd)
}
