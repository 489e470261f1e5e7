package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gridpulse-systems/gridpulse-relay/internal/cli/config"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "gpulse",
	Short: "GridPulse Relay CLI",
	Long: `gpulse is the operator CLI for the GridPulse relay.

Probe the relay's CORS and forwarding behavior, post directly at the
downstream backend, seed user profiles and meter readings, and manage
database migrations from your terminal.`,
	Version: "0.1.0",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.gpulse/config.yaml)")
	rootCmd.PersistentFlags().String("profile", "default", "profile to use")
}

func initConfig() {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not load config: %v\n", err)
		cfg = config.Default()
	}
}

// currentProfile returns the selected profile, or an empty one when the
// profile has never been saved. Flags override its fields.
func currentProfile(cmd *cobra.Command) *config.Profile {
	name, _ := cmd.Flags().GetString("profile")
	profile, err := cfg.GetProfile(name)
	if err != nil {
		return &config.Profile{}
	}
	return profile
}

func resolveRelayURL(cmd *cobra.Command) string {
	if url, _ := cmd.Flags().GetString("relay-url"); url != "" && cmd.Flags().Changed("relay-url") {
		return url
	}
	if p := currentProfile(cmd); p.RelayURL != "" {
		return p.RelayURL
	}
	return "http://localhost:8787"
}

func resolveBackendURL(cmd *cobra.Command) string {
	if url, _ := cmd.Flags().GetString("backend-url"); url != "" && cmd.Flags().Changed("backend-url") {
		return url
	}
	return currentProfile(cmd).BackendURL
}

func resolveDatabaseURL(cmd *cobra.Command) string {
	if url, _ := cmd.Flags().GetString("database-url"); url != "" && cmd.Flags().Changed("database-url") {
		return url
	}
	return currentProfile(cmd).DatabaseURL
}
