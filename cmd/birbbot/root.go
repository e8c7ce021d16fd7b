package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/Zoidster/BirbBot/pkg/config"
	"github.com/Zoidster/BirbBot/pkg/logger"
	"github.com/Zoidster/BirbBot/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile  string
	logLevel    string
	storePath   string
	backend     string
	mode        string
	accountName string
	noColor     bool
	quiet       bool
)

var rootCmd = &cobra.Command{
	Use:   "birbbot",
	Short: "Collect images from subreddits into local folders",
	Long: `BirbBot periodically walks the hot and top listings of one or more
subreddits and saves every linked image it has not seen before.

Each subreddit gets its own folder and its own namespace in a shared
dedup store, so running it again only downloads what is new.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet || cmd.Name() == "help" || cmd.Name() == "version" {
			return
		}
		if cmd.Name() == "run" {
			ui.PrintLogo()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.PrintError("Error", err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configFile, "config", "c", "", "config file (default is ./.birbbot.yaml or ~/.config/birbbot/config.yaml)")
	pf.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&storePath, "store-path", "", "path of the dedup store")
	pf.StringVar(&backend, "backend", "", "dedup store backend (bolt, json)")
	pf.StringVar(&mode, "mode", "", "reddit collector mode (api, public, mock)")
	pf.StringVarP(&accountName, "account", "a", "", "stored reddit account to use in api mode")
	pf.BoolVar(&noColor, "no-color", false, "disable colored output")
	pf.BoolVarP(&quiet, "quiet", "q", false, "suppress progress markers and logs below error")

	rootCmd.SetVersionTemplate(`BirbBot {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// globalFlags collects the persistent flags in the shape config.Load expects
func globalFlags() map[string]interface{} {
	flags := map[string]interface{}{
		"log-level":  logLevel,
		"store-path": storePath,
		"backend":    backend,
		"mode":       mode,
	}
	if quiet {
		flags["log-level"] = "error"
	}
	return flags
}

// loadConfig loads the configuration with extra flags layered on top of the
// global ones, then initializes the global logger from it.
func loadConfig(extra map[string]interface{}) (*config.Config, logger.Logger, error) {
	flags := globalFlags()
	for k, v := range extra {
		flags[k] = v
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, nil, err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, logger.GetLogger(), nil
}
