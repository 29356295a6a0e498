package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/teemow/tagdeck/internal/config"
)

// rootCmd represents the base command for the tagdeck application
var rootCmd = &cobra.Command{
	Use:   "tagdeck",
	Short: "Tag-filtered dashboard over Gmail, Google Calendar and project cards",
	Long: `tagdeck serves a dashboard that lets you tag emails, calendar events and
project cards with your own categories and filter every view by those tags.

It runs as:
  - A JSON HTTP API for the dashboard frontend
  - An MCP (Model Context Protocol) endpoint for AI assistants`,
	SilenceUsage: true,
}

var (
	// version will be set by main
	version = "dev"

	cfgFile string
	v       = config.NewViper()
)

// SetVersion sets the version for the root command
func SetVersion(ver string) {
	version = ver
	rootCmd.Version = ver
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "tagdeck version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file, TAGDECK_* variables and bound flags.
func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	}
	return config.Load(v)
}

// bindFlags binds command flags to config keys. Commands share keys, so
// binding happens when the command runs rather than at init.
func bindFlags(v *viper.Viper, cmd *cobra.Command, keys map[string]string) error {
	for key, name := range keys {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ./tagdeck.yaml or ~/.config/tagdeck/tagdeck.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("log-format", "json", "Log format: json or text")
	if err := v.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level")); err != nil {
		panic(err)
	}
	if err := v.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format")); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newTokenCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
}
