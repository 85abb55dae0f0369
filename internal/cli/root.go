package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile     string
	profileName string
	cfg         *Config
)

var rootCmd = &cobra.Command{
	Use:   "hpctl",
	Short: "Hookpipe CLI",
	Long: `hpctl is the command-line interface for the hookpipe webhook gateway.

Seed accounts and destinations, send test events, and inspect delivery
records from your terminal.`,
	Version: "0.1.0",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.hookpipe/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&profileName, "profile", "", "profile to use")
}

func initConfig() {
	var err error
	cfg, err = LoadConfig(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not load config: %v\n", err)
		cfg = DefaultConfig()
	}
}

// currentProfile resolves the active profile, honoring --profile.
func currentProfile() (*Profile, error) {
	return cfg.GetProfile(profileName)
}
