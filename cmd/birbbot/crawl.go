package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Zoidster/BirbBot/pkg/ui"
)

var (
	crawlFolder    string
	crawlNamespace string
	crawlLimit     int
)

var crawlCmd = &cobra.Command{
	Use:   "crawl [subreddit]",
	Short: "Run a single crawl cycle and exit",
	Long: `Run one crawl cycle for every configured subreddit, or only for the
subreddit given as argument, then exit. The exit status is non-zero if any
cycle failed.`,
	Example: `  # One pass over the configured subreddits
  birbbot crawl

  # One pass over r/parrots into ./Parrots
  birbbot crawl parrots --folder ./Parrots`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCrawl,
}

func init() {
	rootCmd.AddCommand(crawlCmd)
	crawlCmd.Flags().StringVarP(&crawlFolder, "folder", "o", "", "image folder (default ./<subreddit>)")
	crawlCmd.Flags().StringVar(&crawlNamespace, "namespace-key", "", "dedup namespace (default the subreddit name)")
	crawlCmd.Flags().IntVar(&crawlLimit, "limit", 0, "posts per listing (1-100)")
}

func crawlFlags(args []string) map[string]interface{} {
	flags := map[string]interface{}{"listing-limit": crawlLimit}
	if len(args) == 1 {
		flags["subreddit"] = args[0]
		flags["folder"] = crawlFolder
		flags["namespace-key"] = crawlNamespace
	}
	return flags
}

func runCrawl(cmd *cobra.Command, args []string) error {
	a, err := prepare(crawlFlags(args))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	onCycle := cycleRecorder(ui.NewStatusTracker(), out, quiet)
	reporter := a.reporter(out, quiet, !noColor)

	var failures []error
	for _, s := range a.scrapers(reporter, nil) {
		summary, err := s.Crawl(cmd.Context())
		onCycle(summary, err)
		if err != nil {
			failures = append(failures, fmt.Errorf("r/%s: %w", summary.Feed, err))
		}
	}

	return errors.Join(failures...)
}
