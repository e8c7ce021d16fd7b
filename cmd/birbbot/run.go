package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Zoidster/BirbBot/pkg/schedule"
	"github.com/Zoidster/BirbBot/pkg/scraper"
	"github.com/Zoidster/BirbBot/pkg/ui"
)

var (
	runInterval time.Duration
	runCron     string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Crawl every configured subreddit now and then on a schedule",
	Long: `Start one scraper per configured subreddit. Each one crawls immediately
and is then re-run on the configured schedule (daily by default) until the
process is interrupted.

Progress is printed as one character per post:
  .  new image saved
  ;  imgur image being fetched
  _  already downloaded
  -  skipped (gif) or unsupported link
  !  download failed`,
	Example: `  # Run with the configuration file
  birbbot run

  # Crawl every 6 hours instead of daily
  birbbot run --interval 6h

  # Crawl at 07:30 every day
  birbbot run --cron "30 7 * * *"`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().DurationVar(&runInterval, "interval", 0, "time between crawls (overrides schedule.interval)")
	runCmd.Flags().StringVar(&runCron, "cron", "", "cron expression for crawls (overrides the interval)")
}

func runRun(cmd *cobra.Command, args []string) error {
	a, err := prepare(map[string]interface{}{"interval": runInterval})
	if err != nil {
		return err
	}
	if runCron != "" {
		a.cfg.Schedule.Cron = runCron
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	tracker := ui.NewStatusTracker()
	onCycle := cycleRecorder(tracker, out, quiet)

	sched := schedule.New(a.cfg.Schedule.PollInterval, a.log)
	scrapers := a.scrapers(a.reporter(out, quiet, !noColor), onCycle)
	for _, s := range scrapers {
		if err := s.Start(ctx, sched); err != nil {
			return err
		}
	}

	<-ctx.Done()
	sched.Wait()

	if !quiet {
		fmt.Fprintln(out)
		ui.PrintInfo("Images collected", fmt.Sprintf("%d in %d cycles (%d failed)", tracker.TotalDownloaded, tracker.Cycles, tracker.FailedCycles))
		for _, s := range scrapers {
			ui.PrintInfo("  r/"+s.Subreddit(), fmt.Sprintf("%d", tracker.FeedTotal(s.Subreddit())))
		}
		ui.PrintInfo("Uptime", tracker.GetElapsedTime().Round(time.Second).String())
	}
	return nil
}

// cycleRecorder adds every finished cycle to tracker and, unless quiet,
// prints its status line to out.
func cycleRecorder(tracker *ui.StatusTracker, out io.Writer, quiet bool) func(scraper.Summary, error) {
	return func(s scraper.Summary, err error) {
		if quiet {
			tracker.RecordCycle(s.Feed, s.New, err)
			return
		}
		tracker.PrintCycle(out, s.Feed, s.New, err)
	}
}
