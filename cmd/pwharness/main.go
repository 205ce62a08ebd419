package main

import (
	"fmt"
	"os"

	"github.com/gotrs-io/pwharness/browser"
	"github.com/gotrs-io/pwharness/config"
	"github.com/gotrs-io/pwharness/internal/logging"
	"github.com/gotrs-io/pwharness/internal/version"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var rootCmd = &cobra.Command{
	Use:   "pwharness",
	Short: "pwharness - browser test harness tooling",
	Long: `pwharness Command Line Interface

Installs the Playwright driver and browsers, shows the harness configuration
resolved from the environment and .env, and manages saved trace archives.`,
	Version:       version.String(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "pwharness %s\n", version.Full())
	},
}

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the Playwright driver and Chromium",
	RunE:  runInstall,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the resolved configuration as YAML",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(tracesCmd)
	rootCmd.AddCommand(demoCmd)
}

// loadConfig resolves the configuration and a logger built from it.
func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	return cfg, logging.New(cfg.Logging), nil
}

func runInstall(cmd *cobra.Command, args []string) error {
	_, log, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	log.Info("installing playwright", zap.Strings("browsers", browser.Browsers))
	if err := browser.Install(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "✅ Playwright driver and browsers installed")
	return nil
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	return enc.Close()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
