package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"docvoice/internal/config"
	"docvoice/internal/logger"
)

var version = "1.0.0"

// cfg is set by Execute before any command runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "docvoice",
	Short: "docvoice - read photographed documents out loud",
	Long: `docvoice turns a photographed document into spoken audio.

The image is sent to a vision model to produce spoken-style text, and the
text is synthesized into a single WAV file. Use the subcommands to run the
full pipeline or either half on its own.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("docvoice executed")

		fmt.Println("Welcome to docvoice!")
		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute(c *config.Config) {
	cfg = c
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}
