package main

import (
	"fmt"
	"os"

	"github.com/aleister1102/keywatch/internal/config"
	"github.com/spf13/cobra"
)

type globalFlags struct {
	ConfigFile string
	Server     string
	Output     string
}

var flags globalFlags

var rootCmd = &cobra.Command{
	Use:           "keywatch",
	Short:         "Watch web pages for keywords and get notified once per match",
	Long:          "keywatch polls a list of pages on a fixed interval, looks for keywords in their text and raises a notification the first time each keyword shows up on each page.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flags.ConfigFile, "config", "c", "", "Path to the YAML/JSON configuration file. If not set, searches default locations.")
	rootCmd.PersistentFlags().StringVar(&flags.Server, "server", "", "Base URL of a running daemon (default: http://<server_config.listen_addr>)")
	rootCmd.PersistentFlags().StringVarP(&flags.Output, "output", "o", "", "Output format (json)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(resultsCmd)
	rootCmd.AddCommand(toggleCmd)
	rootCmd.AddCommand(clearBadgeCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(settingsCmd)
}

// resolveConfigPath returns the config file to use, falling back to
// keywatch.yaml in the working directory when none exists yet.
func resolveConfigPath() string {
	if path := config.GetConfigPath(flags.ConfigFile); path != "" {
		return path
	}
	if flags.ConfigFile != "" {
		return flags.ConfigFile
	}
	return "keywatch.yaml"
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
