package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/apigrate/quickbooks/cmd/qbo/commands"
	"github.com/apigrate/quickbooks/internal/constants"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "qbo",
	Short: "QuickBooks Online accounting API CLI",
	Long: `A command-line interface for the QuickBooks Online accounting API.

Authorize a company with "qbo auth url" and "qbo auth exchange", then read and
write entities, run reports and submit batches. Refreshed tokens are written
back to the credentials file automatically.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "config file (default is $HOME/.qbo/config.yml)")
	flags.String("client-id", "", "OAuth2 client id")
	flags.String("client-secret", "", "OAuth2 client secret (prompted when unset)")
	flags.String("redirect-uri", "", "OAuth2 redirect uri registered for the app")
	flags.String("base-url", "", "accounting API base URL")
	flags.Bool("sandbox", false, "use the sandbox API")
	flags.String("minor-version", "", "default API minor version")
	flags.String("credentials-file", "", "credentials file (default is $HOME/.qbo/credentials.yml)")
	flags.String("nats-url", "", "publish token events to this NATS server")
	flags.String("output", constants.FormatTable, "output format (table, json, yaml)")
	flags.BoolP("verbose", "v", false, "verbose output")

	// Bind flags to viper
	for key, flag := range map[string]string{
		"config":           "config",
		"client_id":        "client-id",
		"client_secret":    "client-secret",
		"redirect_uri":     "redirect-uri",
		"base_url":         "base-url",
		"sandbox":          "sandbox",
		"minor_version":    "minor-version",
		"credentials_file": "credentials-file",
		"nats_url":         "nats-url",
		"output":           "output",
		"verbose":          "verbose",
	} {
		_ = viper.BindPFlag(key, flags.Lookup(flag))
	}

	// Add commands
	rootCmd.AddCommand(commands.NewVersionCommand(version, commit, date))
	rootCmd.AddCommand(commands.NewAuthCommand())
	rootCmd.AddCommand(commands.NewEntitiesCommand())
	rootCmd.AddCommand(commands.NewGetCommand())
	rootCmd.AddCommand(commands.NewQueryCommand())
	rootCmd.AddCommand(commands.NewCreateCommand())
	rootCmd.AddCommand(commands.NewUpdateCommand())
	rootCmd.AddCommand(commands.NewDeleteCommand())
	rootCmd.AddCommand(commands.NewReportCommand())
	rootCmd.AddCommand(commands.NewBatchCommand())
}

func initConfig() {
	cfgFile := viper.GetString("config")

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		// Search config in ~/.qbo/config.yml
		viper.AddConfigPath(filepath.Join(home, constants.ConfigDirName))
		viper.SetConfigType("yml")
		viper.SetConfigName(constants.ConfigFileName)
	}

	// Read in environment variables that match
	viper.SetEnvPrefix(constants.EnvPrefix)
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
