package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Zoidster/BirbBot/pkg/config"
	"github.com/Zoidster/BirbBot/pkg/ui"
)

var forceInit bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage BirbBot configuration files.

Configuration is merged from, highest priority first:
  - Command line flags
  - Environment variables (BIRBBOT_*, also read from .env)
  - Configuration file
  - Default values`,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with default values",
	Long: `Write the default configuration to birbbot.yaml, or to the path given
with --config. An existing file is only replaced with --force.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration with secrets masked",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
	initCmd.Flags().BoolVar(&forceInit, "force", false, "overwrite an existing file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = "birbbot.yaml"
	}

	if _, err := os.Stat(path); err == nil && !forceInit {
		return fmt.Errorf("configuration file %s already exists (use --force to overwrite)", path)
	}

	if err := config.DefaultConfig().Save(path); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Configuration file created:", path)
	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "1. Edit the scrapers list with the subreddits and folders you want")
	fmt.Fprintln(out, "2. Run 'birbbot config validate' to check the configuration")
	fmt.Fprintln(out, "3. Start collecting with 'birbbot run'")
	return nil
}

// maskedConfig returns a copy of cfg safe to print
func maskedConfig(cfg *config.Config) config.Config {
	display := *cfg
	display.Scrapers = append([]config.ScraperConfig(nil), cfg.Scrapers...)
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		if len(s) > 8 {
			return s[:4] + "..." + s[len(s)-4:]
		}
		return "***"
	}
	display.Reddit.ClientSecret = mask(cfg.Reddit.ClientSecret)
	display.Reddit.Password = mask(cfg.Reddit.Password)
	return display
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(nil)
	if err != nil {
		return err
	}

	display := maskedConfig(cfg)
	data, err := yaml.Marshal(&display)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprint(out, string(data))
	fmt.Fprintln(out, "\nConfiguration sources (in order of priority):")
	fmt.Fprintln(out, "1. Command line flags")
	fmt.Fprintln(out, "2. Environment variables (BIRBBOT_*)")
	if configFile != "" {
		fmt.Fprintf(out, "3. Configuration file: %s\n", configFile)
	} else {
		fmt.Fprintln(out, "3. Configuration file: (searched default locations)")
	}
	fmt.Fprintln(out, "4. Default values")
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(nil)
	if err != nil {
		return err
	}

	if cfg.Reddit.Mode == config.ModeAPI && (cfg.Reddit.ClientID == "" || cfg.Reddit.ClientSecret == "") {
		ui.PrintWarning("API mode without client credentials in config", "they must come from 'birbbot auth login'")
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Configuration is valid")
	fmt.Fprintf(out, "  Mode: %s\n", cfg.Reddit.Mode)
	fmt.Fprintf(out, "  Store: %s (%s)\n", cfg.Cache.StorePath, cfg.Cache.Backend)
	if cfg.Schedule.Cron != "" {
		fmt.Fprintf(out, "  Schedule: cron %q\n", cfg.Schedule.Cron)
	} else {
		fmt.Fprintf(out, "  Schedule: every %s\n", cfg.Schedule.Interval)
	}
	for _, s := range cfg.Scrapers {
		fmt.Fprintf(out, "  r/%s -> %s [%s]\n", s.Subreddit, s.Folder, s.NamespaceKey)
	}
	return nil
}
