package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Zoidster/BirbBot/internal/downloader"
	"github.com/Zoidster/BirbBot/pkg/cache"
	"github.com/Zoidster/BirbBot/pkg/config"
	errs "github.com/Zoidster/BirbBot/pkg/errors"
	"github.com/Zoidster/BirbBot/pkg/feed"
	"github.com/Zoidster/BirbBot/pkg/logger"
	"github.com/Zoidster/BirbBot/pkg/models"
	"github.com/Zoidster/BirbBot/pkg/progress"
	"github.com/Zoidster/BirbBot/pkg/schedule"
	"github.com/Zoidster/BirbBot/pkg/storage"
)

// listings are walked in this order every cycle
var listings = []models.Listing{models.ListingHot, models.ListingTop}

// StoreOpener opens the dedup store
type StoreOpener interface {
	Open(path string) (cache.Handle, error)
}

// Scheduler registers recurring jobs and drives them
type Scheduler interface {
	Every(d time.Duration, name string, job schedule.Job) error
	Cron(spec, name string, job schedule.Job) error
	Start(ctx context.Context)
}

// Dependencies are the capabilities a Scraper needs
type Dependencies struct {
	Feed     feed.Client
	Fetcher  downloader.ImageFetcher
	Opener   StoreOpener
	Reporter progress.Reporter
	Logger   logger.Logger
	// OnCycle, if set, is called after every RunCycle
	OnCycle func(Summary, error)
}

// Summary describes one crawl cycle
type Summary struct {
	downloader.Result
	Feed      string
	RunID     string
	StartedAt time.Time
	Duration  time.Duration
}

// Scraper crawls one subreddit into one folder
type Scraper struct {
	subreddit    string
	namespaceKey string
	storePath    string
	listingLimit int
	interval     time.Duration
	cronSpec     string

	folder   *storage.Manager
	feed     feed.Client
	fetcher  downloader.ImageFetcher
	opener   StoreOpener
	reporter progress.Reporter
	onCycle  func(Summary, error)
	logger   logger.Logger
}

// New creates a scraper for sc using the shared settings in cfg
func New(cfg *config.Config, sc config.ScraperConfig, deps Dependencies) *Scraper {
	log := deps.Logger
	if log == nil {
		log = logger.GetLogger()
	}
	reporter := deps.Reporter
	if reporter == nil {
		reporter = progress.Nop
	}
	namespace := sc.NamespaceKey
	if namespace == "" {
		namespace = sc.Subreddit
	}

	return &Scraper{
		subreddit:    sc.Subreddit,
		namespaceKey: namespace,
		storePath:    cfg.Cache.StorePath,
		listingLimit: cfg.Download.ListingLimit,
		interval:     cfg.Schedule.Interval,
		cronSpec:     cfg.Schedule.Cron,
		folder:       storage.NewManager(sc.Folder),
		feed:         deps.Feed,
		fetcher:      deps.Fetcher,
		opener:       deps.Opener,
		reporter:     reporter,
		onCycle:      deps.OnCycle,
		logger:       log.WithField("subreddit", sc.Subreddit),
	}
}

// Subreddit returns the crawled subreddit name
func (s *Scraper) Subreddit() string {
	return s.subreddit
}

// Folder returns the image folder path
func (s *Scraper) Folder() string {
	return s.folder.Dir()
}

// Crawl runs one cycle. The returned summary holds whatever was counted
// before an error stopped the cycle.
func (s *Scraper) Crawl(ctx context.Context) (summary Summary, err error) {
	summary = Summary{
		Feed:      s.subreddit,
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}
	defer func() {
		summary.Duration = time.Since(summary.StartedAt)
	}()

	log := s.logger.WithField("run_id", summary.RunID)

	existence, err := s.feed.Exists(ctx, s.subreddit)
	switch existence {
	case feed.Found:
	case feed.NotFound:
		log.Warn("Subreddit not found")
		return summary, errs.New(errs.ErrFeedNotFound, errs.ErrorTypeNotFound,
			fmt.Sprintf("subreddit %s not found", s.subreddit))
	default:
		if err == nil {
			err = errors.New("lookup failed")
		}
		if !errors.Is(err, errs.ErrFeedUnavailable) {
			err = errs.Wrap(errs.ErrFeedUnavailable, errs.ErrorTypeNetwork,
				fmt.Sprintf("lookup r/%s", s.subreddit), err)
		}
		return summary, err
	}

	log.InfoWithFields("Running downloader on folder", map[string]interface{}{
		"folder": s.folder.Dir(),
	})

	if err := s.folder.Ensure(); err != nil {
		return summary, err
	}

	handle, err := s.opener.Open(s.storePath)
	if err != nil {
		if !errors.Is(err, errs.ErrStorageUnavailable) {
			err = errs.StorageUnavailable(s.storePath, err)
		}
		return summary, err
	}
	defer func() {
		if closeErr := handle.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	entries, err := handle.Namespace(s.namespaceKey)
	if err != nil {
		return summary, errs.StorageUnavailable(s.storePath, err)
	}

	d := downloader.New(downloader.Options{
		Feed:         s.subreddit,
		NamespaceKey: s.namespaceKey,
		Fetcher:      s.fetcher,
		Folder:       s.folder,
		Cache:        handle,
		Entries:      entries,
		Reporter:     s.reporter,
		Logger:       log,
	})
	defer progress.Finish(s.reporter)

	for _, listing := range listings {
		posts, err := feed.List(ctx, s.feed, listing, s.subreddit, s.listingLimit)
		if err != nil {
			if !errors.Is(err, errs.ErrFeedUnavailable) {
				err = errs.Wrap(errs.ErrFeedUnavailable, errs.ErrorTypeUnknown,
					fmt.Sprintf("list %s r/%s", listing, s.subreddit), err)
			}
			return summary, err
		}

		result, err := d.Download(ctx, listing, posts)
		summary.Result = summary.Result.Add(result)
		if err != nil {
			return summary, err
		}
	}

	return summary, nil
}

// RunCycle runs Crawl and logs the outcome. Errors never escape.
func (s *Scraper) RunCycle(ctx context.Context) Summary {
	summary, err := s.Crawl(ctx)

	logger.LogCycle(s.logger, s.subreddit, summary.New, summary.Duration, err)
	if err == nil {
		s.logger.DebugWithFields("Cycle summary", map[string]interface{}{
			"run_id":      summary.RunID,
			"duplicates":  summary.Duplicates,
			"skipped":     summary.Skipped,
			"unsupported": summary.Unsupported,
			"failed":      summary.Failed,
		})
	}

	if s.onCycle != nil {
		s.onCycle(summary, err)
	}
	return summary
}

// Start runs one cycle now, registers the recurring trigger with sched and
// makes sure its poll loop is running.
func (s *Scraper) Start(ctx context.Context, sched Scheduler) error {
	s.logger.InfoWithFields("Starting new scraper", map[string]interface{}{
		"folder": s.folder.Dir(),
	})

	s.startupCycle(ctx)

	job := func(ctx context.Context) { s.RunCycle(ctx) }
	name := "r/" + s.subreddit

	var err error
	if s.cronSpec != "" {
		err = sched.Cron(s.cronSpec, name, job)
	} else {
		err = sched.Every(s.interval, name, job)
	}
	if err != nil {
		return fmt.Errorf("failed to schedule %s: %w", name, err)
	}

	sched.Start(ctx)
	return nil
}

// startupCycle runs the first cycle with the same panic containment the
// scheduler gives later runs, so a crash never prevents registration.
func (s *Scraper) startupCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorWithFields("Startup cycle panicked", map[string]interface{}{
				"job":   "r/" + s.subreddit,
				"panic": fmt.Sprint(r),
			})
		}
	}()

	s.RunCycle(ctx)
}
